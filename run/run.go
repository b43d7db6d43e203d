// Package run runs the log filter standalone, from reading files to an output file
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/defs"
)

// Statistics summarizes a run
type Statistics struct {
	NumBatches  int
	NumReadings int
	NumTuples   int // numbers of unique asset tracking tuples
}

// Run runs the filter until the input is exhausted or stopped by signals
//
// SIGHUP reloads the filter section of the config file.
func Run(configFile string, enableReload bool) error {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, promreg.NewMetricFactory("logfilter_", nil, nil))
	if loaderErr != nil {
		return loaderErr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, err := Process(ctx, loader, logger.Root(), enableReload)
	logger.WithField(defs.LabelComponent, "Launcher").Infof("processed %d readings in %d batches, %d tracking tuples",
		stats.NumReadings, stats.NumBatches, stats.NumTuples)
	return err
}

// Process feeds all input readings through a new filter instance to the output, until the input is exhausted or ctx is done
func Process(ctx context.Context, loader *Loader, parentLogger logger.Logger, enableReload bool) (Statistics, error) {
	plogger := parentLogger.WithField(defs.LabelComponent, "Launcher")
	stats := Statistics{}

	reader, err := loader.OpenInput(parentLogger)
	if err != nil {
		return stats, fmt.Errorf("input: %w", err)
	}
	defer reader.Close()

	writer, err := loader.NewWriter(parentLogger)
	if err != nil {
		return stats, fmt.Errorf("output: %w", err)
	}

	handle, err := loader.InitFilter(parentLogger, loader.Output.Type, writer.Write)
	if err != nil {
		_ = writer.Close()
		return stats, err
	}

	if enableReload {
		reloader := NewReloader(parentLogger, loader.ConfigPath(), handle)
		defer reloader.ListenSignal()()
		if loader.Watch {
			stopWatcher, werr := reloader.WatchFile()
			if werr != nil {
				plogger.Warn("config file changes won't be reloaded: ", werr)
			} else {
				defer stopWatcher()
			}
		}
	}

	var readErr error
LOOP:
	for {
		select {
		case <-ctx.Done():
			plogger.Info("stopped: ", ctx.Err())
			break LOOP
		default:
		}
		batch, err := reader.NextBatch(loader.Input.BatchSize)
		if errors.Is(err, io.EOF) {
			break LOOP
		}
		if err != nil {
			readErr = fmt.Errorf("input: %w", err)
			break LOOP
		}
		handle.Ingest(batch)
		stats.NumBatches++
		stats.NumReadings += len(batch)
	}

	handle.Shutdown()
	stats.NumTuples = len(loader.AssetTracker.Tuples())
	if err := writer.Close(); err != nil {
		return stats, fmt.Errorf("output: %w", err)
	}
	return stats, readErr
}
