// Package config provides configuration management for livesync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Defaults come from the `default` struct tags of
// each section.
//
// # Configuration Structure
//
//   - Log: logging level and format
//   - Transport: websocket endpoint and reconnect pacing
//   - Group: group and item update debounce windows
//   - Server: HTTP inspection server address
//   - Snapshot: snapshot backend (none, database, storage)
//   - Database: GORM connection details for the database backend
//   - Storage: S3/MinIO credentials and bucket for the storage backend
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Transport.URL)
package config
