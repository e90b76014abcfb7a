// Package database opens the GORM connection used for snapshot persistence.
//
// Two drivers are supported: mysql, configured from host, port and
// credentials, and sqlite, where Name is the database file path.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
