// Package config handles configuration loading and management for hitplate.
//
// It provides functionality for:
//   - Loading .hitplate.json, hitplate.config.json or .hitplaterc
//   - Default configuration values
//   - Merging file settings with command line overrides
package config
