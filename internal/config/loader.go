package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"datamart/pkg/logging"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/datamart"
	configFileName = "config.yaml"

	// EnvPrefix prefixes every environment override, e.g. DATAMART_API_URL.
	EnvPrefix = "DATAMART_"
)

// osUserHomeDir is a package variable so tests can point it elsewhere.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/datamart.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func GetDefaultConfigPathOrPanic() string {
	path, err := GetDefaultConfigPath()
	if err != nil {
		panic(err)
	}
	return path
}

// LoadConfig loads configuration from the config.yaml in configPath and applies
// DATAMART_* overrides from the process environment.
func LoadConfig(configPath string) (DatamartConfig, error) {
	return LoadConfigWithEnv(configPath, nil)
}

// LoadConfigWithEnv is LoadConfig with an explicit environment.
// A nil environ means the process environment.
func LoadConfigWithEnv(configPath string, environ map[string]string) (DatamartConfig, error) {
	config := GetDefaultConfig()

	if configPath != "" {
		configFilePath := filepath.Join(configPath, configFileName)
		data, err := os.ReadFile(configFilePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
		case err != nil:
			logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
			return DatamartConfig{}, err
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return DatamartConfig{}, ConfigurationError{
					FilePath:  configFilePath,
					FileName:  configFileName,
					ErrorType: "parse",
					Message:   err.Error(),
					Suggestions: []string{
						"Check the YAML syntax of the file",
						"Durations use Go syntax, e.g. 30s or 5m",
					},
				}
			}
			logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&config, opts); err != nil {
		return DatamartConfig{}, ConfigurationError{
			FileName:  "environment",
			ErrorType: "parse",
			Message:   err.Error(),
		}
	}

	if errs := ValidateConfig(config); errs.HasErrors() {
		return DatamartConfig{}, errs
	}

	return config, nil
}

// ResolveTokenDir returns the configured token directory or the default
// ~/.config/datamart/tokens.
func (c DatamartConfig) ResolveTokenDir() (string, error) {
	if c.Auth.TokenDir != "" {
		return c.Auth.TokenDir, nil
	}
	base, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "tokens"), nil
}
