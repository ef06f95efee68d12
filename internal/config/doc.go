// Package config loads, normalizes, and validates the TOML configuration
// that drives every airlog component.
//
// Load applies repository defaults, decodes an optional config file, expands
// ~ in path fields, and rejects unusable settings before any component
// starts. Missing required settings are fatal at startup by design.
package config
