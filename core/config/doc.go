// Package config provides configuration management for the country cache
// service.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file, with defaults declared as struct tags on the
// per-package Config types.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (host, port)
//   - Log: Logging level and format
//   - Database: SQLite/MySQL connection details
//   - Storage: S3/MinIO credentials for summary snapshot export
//   - Countries: feed URLs, fetch timeout, and refresh behavior
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
