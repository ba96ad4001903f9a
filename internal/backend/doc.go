// Package backend is the HTTP client for the data-marketplace REST API.
//
// The client knows the wire contract of the /api/auth endpoints and offers a
// generic Do method that the marketplace package builds its calls on. It holds
// no session state: every authenticated call takes the bearer token as an
// argument, and deciding what a rejected token means is left to the caller.
//
// Errors come in two shapes:
//
//   - *StatusError: the backend answered with a non-2xx status. The message is
//     taken from the FastAPI-style {"detail": ...} body when present.
//   - *TransportError: the request never produced a response (DNS, TLS,
//     timeout, refused connection). It is classified so the CLI can print a
//     useful hint.
//
// Each request carries a fresh X-Request-ID so a call can be traced in the
// backend logs.
package backend
