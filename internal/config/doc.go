// Package config loads the application configuration.
//
// Values come from a YAML file (CONFIG_PATH, falling back to ./config.yaml),
// overridden by environment variables, with defaults for everything.
package config
