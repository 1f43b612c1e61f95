// Package config loads and validates the printcast TOML configuration. The
// configuration is read once at startup; all consumers treat it as read-only.
package config
