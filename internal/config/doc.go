// Package config defines the application configuration structure and loads
// it from environment variables (TALOS_ prefix) and an optional config.yaml,
// with environment variables taking precedence.
package config
