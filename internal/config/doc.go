// Package config defines the application configuration structure and the
// logic for loading it from environment variables and config files.
//
// Configuration is organized into logical groups (server, database, auth,
// notify, scheduler), loaded with viper, and validated with
// go-playground/validator before the application starts.
package config
