// Package server holds the HTTP inspection server configuration.
//
// The serve command starts a fiber app on Addr and mounts the inspection
// feature on it. Shutdown waits at most ShutdownTimeout for open requests.
package server
