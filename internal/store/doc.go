// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with specialized
// interfaces:
//
//   - CredentialStore: OAuth clients, authorization codes, access tokens
//   - SessionStore: MCP transport sessions
//   - ContentStore: Content objects served by the content tool pack
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries. Components depend
// on the narrowest interface that covers their needs; nothing reaches into
// shared database state directly.
//
// # Atomicity
//
// Authorization-code consumption is the one operation with a hard concurrency
// requirement: two concurrent token exchanges presenting the same code must
// not both succeed. ConsumeAuthorizationCode runs a single
// DELETE ... RETURNING statement so that exactly one caller observes the row.
// All other operations are independent per-key and rely on SQLite's
// single-statement atomicity.
//
// # Data Models
//
//   - Client: OAuth client registration (immutable, no expiry)
//   - AuthorizationCode: single-use consent credential, 10 minute TTL
//   - AccessToken: bearer credential, 1 hour TTL
//   - Session: MCP conversation handle, created on initialize
//   - ContentObject: post/page record backing the content tools
//
// Timestamps are stored as RFC3339 UTC strings. Expired codes and tokens are
// treated as absent by reads even before the cleanup sweep physically removes
// them.
package store
