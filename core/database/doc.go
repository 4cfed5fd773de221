// Package database handles database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to
// configure SQLite or MySQL connections based on the application's
// configuration. SQLite is the default driver and supports ":memory:"
// databases for tests; MySQL is available for shared deployments.
//
// # Connect
//
// The Connect function establishes a connection for the configured driver,
// applies pool settings where the driver supports them, and verifies the
// connection with a bounded ping before returning.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
