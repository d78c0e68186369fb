// Package config loads runtime configuration for the gateway CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-u string   base URL of the gateway API
//	-k string   user API key (empty for anonymous access)
//	-z string   zone name
//	-i string   path of the local SQLite index database
//
// # JSON schema
//
//	{
//	  "gateway_url": "http://127.0.0.1:8080",
//	  "api_key": "…",
//	  "zone": "scratch",
//	  "index_dsn": "kachery-index.db"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
