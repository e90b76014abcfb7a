// Package utils provides common utility functions for livesync.
// It includes helpers for type conversion and for ordering and comparing the
// loosely typed scalar values that arrive in decoded diff payloads.
package utils
