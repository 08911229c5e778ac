// Package config loads runtime configuration for the SessionKeeper CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. SK_CLIENT_* environment variables.
//  4. Command-line flags.
//
// JSON durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "database_path": "sessionkeeper.db"
//	}
package config
