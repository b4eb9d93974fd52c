// Package timeouts defines shared timeout constants used across the back
// office. Page-level overrides come from configuration; these are the defaults.
package timeouts

import "time"

// FlashAutoDismiss is how long a timed notification stays on screen.
const FlashAutoDismiss = 5 * time.Second

// ErrorFallback removes an error notification nobody closed by hand.
const ErrorFallback = 10 * time.Second

// FetchRequest caps a single supporting fetch from a page controller.
const FetchRequest = 8 * time.Second

// LoginRedirect is the pause between a successful sign-in notice and the
// dashboard navigation.
const LoginRedirect = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
