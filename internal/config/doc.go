// Package config provides configuration loading and validation for the speech analysis service.
// It handles YAML-based configuration layered over built-in defaults, so the service runs
// without a file and individual values can be overridden from the command line or environment.
package config
