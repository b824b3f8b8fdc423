package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// SessionOpened is a no-op.
func (n *NoopCollector) SessionOpened() {}

// SessionClosed is a no-op.
func (n *NoopCollector) SessionClosed() {}

// AuthAttempt is a no-op.
func (n *NoopCollector) AuthAttempt(username string, success bool) {}

// CommandProcessed is a no-op.
func (n *NoopCollector) CommandProcessed(command string) {}

// TransferCompleted is a no-op.
func (n *NoopCollector) TransferCompleted(kind string, sizeBytes int64, success bool) {}

// DataConnectionFailed is a no-op.
func (n *NoopCollector) DataConnectionFailed() {}
