// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml, overlaid with environment variables
// (a local .env file is honoured) and validated using struct tags. Both the
// routes API server and the split-gtfs tool read the same file.
package config
