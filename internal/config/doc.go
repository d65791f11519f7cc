// Package config provides centralized configuration management for
// stockwatch. Configuration is loaded from the following sources in order
// of precedence:
//
//	1. Environment variables (highest priority)
//	2. An optional YAML configuration file
//	3. Struct-tag defaults (lowest priority)
//
// All environment variables carry the STOCKWATCH_ prefix:
//
//	STOCKWATCH_SERVER_PORT=8080
//	STOCKWATCH_VISION_API_KEY=...
//	STOCKWATCH_PRICING_TOKEN=...
//	STOCKWATCH_MONITOR_INTERVAL=5m
//
// A .env file in the working directory is loaded first as a development
// convenience.
package config
