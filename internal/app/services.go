package app

import (
	"context"
	"fmt"
	"os"

	"datamart/internal/backend"
	"datamart/internal/config"
	"datamart/internal/formatting"
	"datamart/internal/marketplace"
	"datamart/internal/router"
	"datamart/internal/session"
	"datamart/internal/views"
	"datamart/pkg/logging"
)

// Services holds the components every command shares.
type Services struct {
	// Config is the resolved configuration.
	Config config.DatamartConfig

	// API is the HTTP client for the marketplace backend.
	API *backend.Client

	// Tokens persists the bearer token for Config.API.URL.
	Tokens *session.LocalTokenStore

	// Providers are the configured OAuth providers.
	Providers *session.Providers

	// Session is the process's single session manager.
	Session *session.Manager

	// Market calls the authenticated marketplace resources.
	Market *marketplace.Client

	// Formatter renders command output in the selected format.
	Formatter formatting.Formatter

	// Router renders views for in-app paths.
	Router *router.Router
}

// InitializeServices wires the session, marketplace client, views and router
// from cfg. ctx bounds navigation the session manager triggers on its own.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	if cfg.DatamartConfig == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	dm := *cfg.DatamartConfig

	format, err := formatting.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := cfg.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}

	s := &Services{
		Config:    dm,
		API:       backend.NewClient(dm.API.URL, backend.WithTimeout(dm.API.Timeout), backend.WithLogger(logging.Logger())),
		Providers: session.NewProviders(dm.Auth.Providers, dm.Auth.CallbackPort),
		Formatter: formatting.New(formatting.Options{Format: format, Color: cfg.Interactive && !cfg.NoColor}),
	}

	tokenDir, err := dm.ResolveTokenDir()
	if err != nil {
		return nil, err
	}
	s.Tokens, err = session.NewLocalTokenStore(session.LocalTokenStoreConfig{
		StorageDir: tokenDir,
		ServerURL:  dm.API.URL,
		FileMode:   true,
	})
	if err != nil {
		return nil, err
	}

	// The router does not exist yet; in-app navigation resolves it late.
	nav := session.BrowserNavigator{
		InApp: session.NavigatorFunc(func(target string) error {
			if s.Router == nil {
				return fmt.Errorf("navigation to %s before the router is ready", target)
			}
			return s.Router.Navigate(ctx, target)
		}),
		Open: cfg.OpenBrowser,
	}

	s.Session, err = session.NewManager(session.ManagerConfig{
		API:       s.API,
		Tokens:    s.Tokens,
		States:    session.NewStateStore(dm.Auth.StateTTL, nil),
		Providers: s.Providers,
		Navigator: nav,
		LoginPath: dm.Auth.LoginPath,
	})
	if err != nil {
		return nil, err
	}

	s.Market = marketplace.NewClient(s.API, s.Session)

	viewSet, err := views.New(views.Deps{
		Session:   s.Session,
		Market:    s.Market,
		Formatter: s.Formatter,
		Providers: s.Providers.Names(),
	})
	if err != nil {
		return nil, err
	}

	var indicator router.Indicator
	if cfg.Interactive {
		indicator = router.NewSpinnerIndicator(errOut)
	}

	s.Router, err = router.New(router.Config{
		Session:   s.Session,
		Views:     viewSet,
		Table:     routeTable(dm.Auth.LoginPath),
		Out:       out,
		LoginPath: dm.Auth.LoginPath,
		Indicator: indicator,
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("Bootstrap", "Services initialized for %s (providers: %v)", dm.API.URL, s.Providers.Names())
	return s, nil
}

// routeTable returns the default table with the login route moved to loginPath.
func routeTable(loginPath string) router.Table {
	table := router.DefaultTable()
	for i := range table {
		if table[i].View == router.ViewLogin && loginPath != "" {
			table[i].Pattern = loginPath
		}
	}
	return table
}
