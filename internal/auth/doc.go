// Package auth implements bearer-token authentication for the
// authorization service: compact JWT verification with a shared HMAC
// secret, typed claims extraction, and the per-request Identity that
// every downstream authorization decision is a pure function of.
//
// Verification accepts exactly one signing algorithm (HS256); tokens
// asserting any other algorithm are rejected outright rather than
// negotiated. The expected audience is the fixed literal
// "authenticated".
//
// The package performs no I/O: verification and claims extraction are
// pure functions of the token, the configured secret, and the clock.
package auth
