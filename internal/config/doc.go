// Package config provides YAML configuration loading with environment
// variable substitution and file watching for hot reload.
package config
