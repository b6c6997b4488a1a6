// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so backend URLs can come from CHAT_AGGREGATE_URL-style variables at deploy time.
package config
