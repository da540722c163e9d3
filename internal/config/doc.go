// Package config defines configuration structures for the unqork-logs CLI.
//
// Configuration can be provided via:
//   - YAML configuration file (~/.unqork-logs/config.yaml or $UNQORK_CONFIG)
//   - Environment variables (UNQORK_ prefix)
//
// Environment variables take precedence over the file. Three settings are
// required and have no defaults: the instance base URL and the OAuth2
// client id and secret.
//
// # Structure
//
//	type Config struct {
//	    BaseURL                string
//	    ClientID               string
//	    ClientSecret           string
//	    DataDir                string
//	    MaxConcurrentDownloads int
//	    TokenRefreshBuffer     time.Duration
//	    HTTPTimeout            time.Duration
//	    VerifySSL              bool
//	}
package config
