// Package ratelimit bounds how many notifications a sender may create
// inside a trailing window. Two variants exist: a store-backed sliding
// window derived from persisted creation timestamps (authoritative, works
// across instances) and a process-local in-memory window (cheaper, single
// instance only). Both use the same window and threshold and never count
// the in-flight request before the check passes.
package ratelimit

import "time"

const (
	// DefaultWindow is the trailing window length.
	DefaultWindow = 60 * time.Second
	// DefaultThreshold is the max creations per sender per window.
	DefaultThreshold = 10
)
