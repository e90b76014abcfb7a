// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - rayid: assigns every request a ray id, stored in the fiber locals
//     read by logger.WithRayID and echoed in the X-Ray-ID header.
package middleware
