// Package oauth implements the gateway's bundled OAuth 2.1 authorization
// server.
//
// The server handles dynamic client registration (RFC 7591), the
// authorization endpoint with user consent, the token endpoint with
// mandatory PKCE (RFC 7636), and the discovery documents (RFC 8414,
// RFC 9728). Only the authorization_code grant is supported; there are no
// refresh tokens and no token introspection.
//
// # Security posture
//
// Three properties hold throughout the package:
//
//   - The authorization endpoint never redirects to an unvalidated target.
//     client_id and redirect_uri are checked first, and failures before
//     that point are answered directly.
//   - Authorization codes are single use. Consumption is an atomic
//     fetch-and-delete in the store, so concurrent exchanges of one code
//     yield exactly one token.
//   - The token endpoint collapses all grant failures (unknown code, used
//     code, expired code, redirect mismatch, PKCE failure) into one uniform
//     invalid_grant response so callers cannot probe which check failed.
//
// User identity comes from the host login flow: a signed assertion in a
// cookie, verified through auth.LoginVerifier. This package never handles
// passwords.
package oauth
