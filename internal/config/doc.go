// Package config loads, normalizes, and validates the TOML configuration
// shared by every reviewforge command.
package config
