// Package config defines the gateway configuration model and loading.
//
// Configuration is read from a YAML file, merged with defaults, overridden
// by MERIDIAN_* environment variables, and validated. The curated model
// catalog and manual pricing overrides live in separate YAML files
// referenced from the main configuration; Watcher re-reads them on change.
package config
