// Package config provides configuration management for the retention daemon.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// When no file path is given, config.Default() returns a fully defaulted
// configuration.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RETENTIOND_SECTION_FIELD.
// For example:
//
//   - RETENTIOND_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - RETENTIOND_ARCHIVE_ROOT overrides archive.root
//   - RETENTIOND_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., listen address, archive root)
//   - Range validation (e.g., max_concurrent must be at least 1)
//   - Enumeration checks (e.g., store backend must be sqlite or memory)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - store.backend: unknown backend "postgres" (must be sqlite or memory)
//	  - scheduler.max_concurrent: max concurrent executions must be at least 1
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8085"
//
//	store:
//	  backend: "sqlite"
//	  path: "data/retention.db"
//
//	datastore:
//	  backend: "sqlite"
//	  path: "data/records.db"
//
//	policies:
//	  seed_path: "policies.yaml"
//	  watch: true
//
//	archive:
//	  root: "data/archives"
//
//	scheduler:
//	  tick_interval: 30s
//	  max_concurrent: 4
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
