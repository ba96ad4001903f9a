// Package config provides configuration management for datamart.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. config.yaml in the configuration directory (default ~/.config/datamart,
//     overridable with the --config-path flag)
//  3. DATAMART_* environment variables, e.g. DATAMART_API_URL,
//     DATAMART_TOKEN_DIR, DATAMART_GOOGLE_CLIENT_ID, DATAMART_LOG_LEVEL
//
// The merged result is validated before it is returned; problems are reported
// as ValidationErrors naming the offending field.
//
// Example config.yaml:
//
//	api:
//	  url: https://marketplace.example.com
//	  timeout: 15s
//	auth:
//	  callbackPort: 3000
//	  providers:
//	    google:
//	      clientId: 1234.apps.googleusercontent.com
//	    github:
//	      clientId: Iv1.abcdef
//	logging:
//	  level: info
//	  format: text
package config
