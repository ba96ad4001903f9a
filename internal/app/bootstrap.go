package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"datamart/internal/config"
	"datamart/pkg/logging"
)

// Application represents the main application structure that bootstraps
// datamart. It owns the configuration and the wired services for the
// lifetime of one command.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Configures logging based on the debug flag
//  2. Loads datamart configuration (config.yaml, then DATAMART_* variables)
//  3. Re-configures logging from the loaded settings
//  4. Initializes the session, marketplace client, views and router
//
// ctx bounds navigation triggered by the session itself, such as the
// redirect to the login view after logout.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.ErrOut != nil {
		logOutput = cfg.ErrOut
	}

	// Until the configuration is loaded.
	appLogLevel := logging.LevelWarn
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.DatamartConfig == nil {
		configPath := cfg.ConfigPath
		if configPath == "" {
			var err error
			if configPath, err = config.GetDefaultConfigPath(); err != nil {
				return nil, err
			}
		}

		dm, err := config.LoadConfig(configPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load datamart configuration from path: %s", configPath)
			return nil, fmt.Errorf("failed to load datamart configuration from %s: %w", configPath, err)
		}
		logging.Debug("Bootstrap", "Loaded configuration from %s", configPath)
		cfg.DatamartConfig = &dm
	}

	configureLogging(cfg, logOutput)

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// configureLogging applies the configured level and format. --debug wins
// over the configured level.
func configureLogging(cfg *Config, output io.Writer) {
	level := logging.LevelDebug
	if !cfg.Debug {
		parsed, err := logging.ParseLevel(cfg.DatamartConfig.Logging.Level)
		if err != nil {
			parsed = logging.LevelInfo
		}
		level = parsed
	}

	format := logging.FormatText
	if strings.EqualFold(cfg.DatamartConfig.Logging.Format, string(logging.FormatJSON)) {
		format = logging.FormatJSON
	}
	logging.Init(level, format, output)
}

// Services returns the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the application configuration.
func (a *Application) Config() *Config {
	return a.config
}

// Open restores the session and navigates to target.
func (a *Application) Open(ctx context.Context, target string) error {
	a.services.Session.Restore(ctx)
	return a.services.Router.Navigate(ctx, target)
}
