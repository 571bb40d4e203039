// Package config handles configuration loading for taskgate.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion, then overridden by TASKGATE_* environment variables. Missing
// keys get defaults and the result is validated.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TASKGATE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/taskgate/config.yaml
//  3. ~/.config/taskgate/config.yaml
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variables
//
// Values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TASKGATE_SECRET}"
//
// Every key can also be overridden directly. The variable name is the key
// path upper-cased with a TASKGATE_ prefix:
//
//	TASKGATE_SERVER_HTTP_ADDR=:9090
//	TASKGATE_DATABASE_PATH=/var/lib/taskgate/taskgate.db
//	TASKGATE_AUTH_TOKEN_TTL=1h
//
// # Configuration Sections
//
//	server:
//	  http_addr: ":8080"          # REST API, docs, health, metrics
//	  grpc_addr: ""               # optional gRPC health service
//
//	database:
//	  driver: "sqlite"            # sqlite (pure Go) or sqlite3 (cgo)
//	  path: "./taskgate.db"
//
//	auth:
//	  jwt_secret: ""              # empty: random key per process
//	  token_ttl: "24h"
//
//	logging:
//	  level: "info"               # debug, info, warn, error
//	  format: "text"              # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Validation
//
// Load() rejects:
//
//   - an unknown database driver or missing database path
//   - a jwt_secret shorter than 32 bytes
//   - a non-positive or unparseable token_ttl
//   - unknown logging level or format
package config
