// Package auth provides bearer-token authentication for the MCP transport
// and verification of host login identity assertions.
//
// Two separate credentials flow through the gateway:
//
//   - Opaque access tokens, minted by the OAuth token endpoint and stored in
//     the credential store. BearerMiddleware validates them on every
//     protected request and attaches the resolved Identity to the request
//     context.
//
//   - Identity assertions, HS256-signed JWTs minted by the host CMS login
//     flow and carried in a browser cookie. Only the consent endpoint reads
//     them, to learn which user is approving an authorization request.
//
// Sessions carry no permissions of their own; authorization always comes
// from the bearer token presented on each request.
package auth
