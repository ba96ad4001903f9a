// Package logging provides the structured logger shared by every datamart
// component.
//
// It is a thin layer over Go's slog package that adds a subsystem attribute
// to each entry and a printf-style API:
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("Session", "Restored session for %s", email)
//	logging.Debug("Backend", "GET %s -> %d", path, status)
//	logging.Error("Config", err, "Failed to load %s", path)
//
// # Subsystems
//
//   - Bootstrap: process start-up and wiring
//   - Config: configuration loading and validation
//   - Session: authentication lifecycle
//   - Backend: REST calls to the marketplace API
//   - Router: navigation and route guarding
//   - Shell: the interactive shell
//
// # Audit Logging
//
// Credential handling (token stored, token deleted, OAuth state consumed) is
// logged through Audit with a SECURITY_AUDIT prefix. Token values are never
// logged; only the event, the target (a backend URL or provider) and the outcome.
//
//	logging.Audit(logging.AuditEvent{
//	    Event:   "token_stored",
//	    Target:  backendURL,
//	    Outcome: "success",
//	})
//
// Components that prefer key/value logging may call slog directly; Init installs
// the same handler as slog's default.
package logging
