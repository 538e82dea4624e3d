// Package mcp implements the gateway's MCP transport: a single HTTP route
// speaking JSON-RPC 2.0 over POST, with DELETE for explicit session
// termination.
//
// The transport is deliberately narrow. There is no streaming mode, so GET
// is always answered 405 before authentication ever runs. Batch JSON-RPC
// arrays are rejected. Notifications are accepted with 202 and never
// produce a body, even when no handler is registered for them.
//
// Sessions are a transport-level conversation handle and nothing more: they
// carry no permissions (authorization is the bearer token on every call)
// and exist only so a client can explicitly end a conversation. A session
// is minted when a dispatch produces an InitializeResult and rides back on
// both the mcp_session_id cookie and the deprecated Mcp-Session-Id header.
package mcp
