// Package config handles configuration loading for automation-console.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Files ending in .toml are decoded as TOML; anything else is
// treated as YAML. Missing optional fields keep the values from Default().
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from CONSOLE_CONFIG environment variable
//  3. ~/.config/automation-console/console.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  token: "${CONSOLE_TOKEN}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Backends (at least one is required):
//
//	servers:
//	  controller:
//	    url: "https://awx.example.com"
//	    api_prefix: "/api/v2"
//	  eda:
//	    url: "https://eda.example.com"
//	    api_prefix: "/api/eda/v1"
//	  hub:
//	    url: "https://hub.example.com"
//	    type: "hub"    # hub, galaxy
//
// Authentication:
//
//	auth:
//	  token: "${CONSOLE_TOKEN}"   # optional bearer token
//	  csrf_cookie: "csrftoken"
//	  csrf_header: "X-CSRFToken"
//
// List views:
//
//	views:
//	  per_page: 10
//	  revalidate_interval: "30s"
//	  disable_query_sync: false
//
// Task polling:
//
//	tasks:
//	  poll_delay: "100ms"
//	  max_retries: 10
//	  max_network_retries: 3
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	cfg, err := config.Load("/etc/automation-console/console.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
