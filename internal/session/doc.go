// Package session owns the client-side authentication lifecycle of datamart.
//
// A single Manager per process holds the session status, the confirmed user
// and the bearer token, and is the only component allowed to change them.
// Views and commands receive the Manager explicitly and read it through
// Snapshot, or react to changes through Subscribe.
//
// # Status
//
//	Unresolved --Restore--> Loading --> Authenticated | Unauthenticated
//	Authenticated --Logout / RejectToken / expiry--> Unauthenticated
//	Unauthenticated --Login / Register / CompleteOAuth--> Authenticated
//
// A stored token alone never makes the session Authenticated: Restore first
// asks the backend who the token belongs to, and discards it if the answer
// is anything but a user record. JWT tokens are also checked against their
// exp claim on the client.
//
// # OAuth
//
// BeginOAuth encodes {provider, nonce} as base64 JSON into the state
// parameter, keeps it in an in-memory StateStore and sends the user to the
// provider. CompleteOAuth accepts the redirect only if the state decodes to
// a recognized provider and equals the pending value, which is consumed on
// first use. The code exchange itself runs on the backend. CallbackServer is
// the loopback listener that receives the redirect for the CLI.
//
// # Errors
//
// Failed operations return *Error, whose Kind is one of
// ErrTransportFailure, ErrAuthenticationRejected, ErrInvalidCallback,
// ErrValidationFailure or ErrStorageFailure. The underlying backend error stays reachable with
// errors.As.
//
// # Storage
//
// LocalTokenStore keeps the token in <dir>/<sha256(server)[:16]>.json with
// 0600 permissions and logs SECURITY_AUDIT events on every write and delete.
// Token values are never logged.
package session
