// Package config loads and validates the driftwatch YAML configuration
// and supports hot reload via filesystem notifications. A failed reload
// keeps the previous configuration active.
package config
