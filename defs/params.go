package defs

import (
	"time"

	"github.com/c2h5oh/datasize"
)

var (
	// InputBatchMaxReadings defines the maximum numbers of readings to pass to filter in one ingest call, when reading from files
	//
	// The host pipeline decides its own batch size. This only applies to the standalone runner.
	InputBatchMaxReadings = 100

	// OutputChunkMaxBytes defines how many encoded bytes can be buffered in output writers before flushing to the underlying file
	OutputChunkMaxBytes = 1 * datasize.MB

	// ReloadMinInterval defines the minimum interval between two reloads triggered by signals
	//
	// Extra signals received in the interval are ignored
	ReloadMinInterval = 1 * time.Second

	// ReloadWatchDelay defines how long to wait after the last change of config file before reloading it
	ReloadWatchDelay = 100 * time.Millisecond
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)
