// Package marketplace is the authenticated client for the data marketplace
// resources behind the login: the dashboard summary, the data explorer,
// uploads, subscriptions and account settings.
//
// Every call takes its bearer token from the session. A 401 answer is
// reported back through Session.RejectToken, which ends the session, and
// is returned to the caller as an authentication error. All other failures
// are returned unchanged; nothing here logs and swallows an error.
package marketplace
