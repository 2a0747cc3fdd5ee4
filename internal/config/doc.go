// Package config loads marktube's TOML configuration, applies .env and
// MARKTUBE_* environment overrides, and validates the result.
package config
