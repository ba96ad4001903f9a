// Package app provides application bootstrap for datamart.
//
// It resolves configuration, initializes logging, and wires the components
// every command shares into one Services value:
//
//	config -> backend.Client -> session.LocalTokenStore -> session.Manager
//	                         -> marketplace.Client
//	session.Manager + views -> router.Router
//
// # Ownership
//
// There is exactly one session.Manager per process. It is created here and
// passed explicitly to the marketplace client, the views and the router;
// nothing reaches it through a package variable.
//
// # Navigation
//
// The Manager and the Router depend on each other: the Router reads the
// session, and the Manager navigates (to the login view on logout, to the
// dashboard after an OAuth login, to the provider's page when a flow
// starts). The Manager is given a session.BrowserNavigator whose in-app
// half is bound to the Router once it exists; absolute URLs open in the
// system browser.
//
// # Usage
//
//	cfg := app.NewConfig(debug, configPath, "table")
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Open(ctx, "/explorer")
package app
