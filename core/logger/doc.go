// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and a small set of field helpers so that every
// component tags its entries the same way.
//
// # Fields
//
// Subscription, Publication, Item and Connection build the zap fields used by
// the registry, the group coordinator and the websocket transport. Logs for
// one subscription can be correlated across reconnects by subscription_id,
// and logs for one socket by connection_id.
//
// The HTTP inspection API attaches a RayID per request; WithRayID extracts it
// from a Fiber context.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Subscribed", logger.Publication("users"), logger.Subscription(3))
package logger
