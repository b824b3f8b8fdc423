// Package metrics provides interfaces and implementations for collecting
// FTP server metrics. This package defines the Collector interface for
// recording metrics and the Server interface for exposing them.
package metrics

import "context"

// Collector defines the interface for recording FTP server metrics.
type Collector interface {
	// Session metrics
	SessionOpened()
	SessionClosed()

	// Authentication metrics
	AuthAttempt(username string, success bool)

	// Command metrics
	CommandProcessed(command string)

	// Transfer metrics (kind is LIST, RETR, or STOR)
	TransferCompleted(kind string, sizeBytes int64, success bool)

	// Data connection metrics
	DataConnectionFailed()
}

// Server defines the interface for a metrics HTTP server.
type Server interface {
	// Start begins serving metrics. It blocks until the context is canceled
	// or an error occurs.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the metrics server.
	Shutdown(ctx context.Context) error
}
