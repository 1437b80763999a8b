// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// An optional .env file is loaded into the environment first (LoadDotEnv).
// Sink sections (database.timescale, redis, kafka, stream) are optional and
// enabled by their presence.
package config
