package base

// OutputHandle is an opaque destination passed back to OutputStream, e.g. the next filter in the host's chain
type OutputHandle interface{}

// OutputStream passes a batch of readings to the next stage
//
// It's called synchronously and exactly once per ingested batch, with the full batch.
type OutputStream func(handle OutputHandle, readings ReadingSet)

// AssetTracker records which service or filter has touched which asset
//
// Calls are fire-and-forget: implementations must not block or fail the caller.
type AssetTracker interface {
	AddAssetTrackingTuple(serviceName string, assetName string, event string)
}

// EnabledQuery reports whether a filter is administratively enabled
type EnabledQuery func() bool

// Filter processes batches of readings in place and forwards them downstream
type Filter interface {

	// Ingest transforms the batch and passes all readings to the output stream
	Ingest(readings ReadingSet)

	// Reconfigure applies a full configuration snapshot in JSON
	Reconfigure(newConfig string) error

	// Shutdown releases resources. Ingest after Shutdown only forwards readings.
	Shutdown()
}
