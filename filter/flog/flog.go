// Package flog provides the 'log' filter, which rescales numeric datapoints of readings by natural logarithm
//
// Readings can be restricted by a pattern matching entire asset names. Non-matching readings, zero values and
// non-numeric datapoints are passed through untouched. All readings are forwarded in the same batch.
package flog

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/base/bconfig"
	"github.com/relex/log-filter/base/bmatch"
	"github.com/relex/log-filter/defs"
)

// Filter is the log filter instance
//
// Ingest and Reconfigure share one lock: a batch is always processed with the matcher it started with.
type Filter struct {
	name         string
	logger       logger.Logger
	outHandle    base.OutputHandle
	output       base.OutputStream
	assetTracker base.AssetTracker
	metrics      filterMetrics
	enabled      int32             // enable flag from configuration, may be toggled by SetEnabled
	enabledQuery base.EnabledQuery // external query of enabled state, defaults to enabled flag above
	configLock   sync.Mutex        // guards all fields below
	config       Config
	matcher      *bmatch.AssetMatcher // nil if no .match
	closed       bool
	warnedClosed bool
}

// NewFilter creates a log filter from its configuration category
//
// The output stream is invoked once per Ingest. The asset tracker may be nil.
func NewFilter(name string, category *bconfig.ConfigCategory, outHandle base.OutputHandle, output base.OutputStream,
	assetTracker base.AssetTracker, parentLogger logger.Logger, metricCreator promreg.MetricCreator,
) (*Filter, error) {
	if output == nil {
		return nil, fmt.Errorf("output stream is nil")
	}

	f := &Filter{
		name:         name,
		logger:       parentLogger.WithField(defs.LabelComponent, "LogFilter").WithField(defs.LabelName, name),
		outHandle:    outHandle,
		output:       output,
		assetTracker: assetTracker,
		metrics:      newFilterMetrics(metricCreator),
		enabled:      0,
		enabledQuery: nil,
		configLock:   sync.Mutex{},
		config:       Config{},
		matcher:      nil,
		closed:       false,
		warnedClosed: false,
	}
	f.enabledQuery = f.isEnabledByConfig

	if err := f.handleConfig(category); err != nil {
		return nil, err
	}
	return f, nil
}

// Ingest rescales eligible readings in-place and passes the whole batch to the output stream
func (f *Filter) Ingest(readings base.ReadingSet) {
	f.configLock.Lock()
	defer f.configLock.Unlock()

	f.metrics.ingestedBatches.Inc()

	switch {
	case f.closed:
		if !f.warnedClosed {
			f.logger.Warnf("ingest after shutdown: %d readings passed through", len(readings))
			f.warnedClosed = true
		}
		f.metrics.passedReadings.Add(uint64(len(readings)))
	case !f.enabledQuery():
		f.metrics.passedReadings.Add(uint64(len(readings)))
	default:
		f.transformAll(readings)
	}

	f.output(f.outHandle, readings)
}

// Reconfigure applies a full snapshot of configuration category in JSON (or YAML)
//
// On error the previous configuration stays in effect.
func (f *Filter) Reconfigure(newConfig string) error {
	category, err := bconfig.ParseConfigCategory(f.name, newConfig)
	if err != nil {
		f.metrics.failedReconfigurations.Inc()
		f.logger.Error("failed to parse new configuration: ", err)
		return fmt.Errorf("%w: %s", ErrConfiguration, err.Error())
	}
	return f.ReconfigureCategory(category)
}

// ReconfigureCategory applies a parsed configuration category
//
// On error the previous configuration stays in effect.
func (f *Filter) ReconfigureCategory(category *bconfig.ConfigCategory) error {
	f.configLock.Lock()
	defer f.configLock.Unlock()

	if err := f.handleConfig(category); err != nil {
		f.metrics.failedReconfigurations.Inc()
		f.logger.Errorf("failed to reconfigure, keeping match '%s': %s", f.config.Match, err.Error())
		return err
	}
	f.metrics.reconfigurations.Inc()
	return nil
}

// Shutdown releases the matcher. Batches ingested afterwards are forwarded untouched.
func (f *Filter) Shutdown() {
	f.configLock.Lock()
	defer f.configLock.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.matcher = nil
	f.logger.Info("shut down")
}

// IsEnabled queries whether the filter is administratively enabled
func (f *Filter) IsEnabled() bool {
	f.configLock.Lock()
	defer f.configLock.Unlock()
	return f.enabledQuery()
}

// SetEnabled toggles the enable flag independently of .match, until the next reconfiguration
func (f *Filter) SetEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&f.enabled, 1)
	} else {
		atomic.StoreInt32(&f.enabled, 0)
	}
}

// SetEnabledQuery replaces the source of enabled state, e.g. with a flag owned by the host
func (f *Filter) SetEnabledQuery(query base.EnabledQuery) {
	f.configLock.Lock()
	defer f.configLock.Unlock()

	if query == nil {
		f.enabledQuery = f.isEnabledByConfig
	} else {
		f.enabledQuery = query
	}
}

// GetConfig returns a copy of current configuration
func (f *Filter) GetConfig() Config {
	f.configLock.Lock()
	defer f.configLock.Unlock()
	return f.config
}

func (f *Filter) isEnabledByConfig() bool {
	return atomic.LoadInt32(&f.enabled) != 0
}

// handleConfig derives and compiles configuration, committing nothing unless all of it is valid. Caller must hold configLock.
func (f *Filter) handleConfig(category *bconfig.ConfigCategory) error {
	config, err := ParseConfig(category)
	if err != nil {
		return err
	}
	matcher, err := config.NewMatcher()
	if err != nil {
		return err
	}

	f.config = config
	f.matcher = matcher
	f.SetEnabled(config.Enable)

	if matcher != nil {
		f.logger.Infof("configured: enable=%t match=%s", config.Enable, matcher)
	} else {
		f.logger.Infof("configured: enable=%t match=<all>", config.Enable)
	}
	return nil
}

func (f *Filter) transformAll(readings base.ReadingSet) {
	var numTransformed, numPassed, numRescaled, numZero uint64

	for _, reading := range readings {
		if f.matcher != nil && !f.matcher.Match(reading.AssetName) {
			numPassed++
			continue
		}

		if f.assetTracker != nil {
			f.assetTracker.AddAssetTrackingTuple(f.name, reading.AssetName, defs.AssetTrackingEventFilter)
		}

		for _, dp := range reading.Datapoints {
			switch rescale(&dp.Value) {
			case rescaled:
				numRescaled++
			case skippedZero:
				numZero++
			}
		}
		numTransformed++
	}

	f.metrics.transformedReadings.Add(numTransformed)
	f.metrics.passedReadings.Add(numPassed)
	f.metrics.rescaledDatapoints.Add(numRescaled)
	f.metrics.skippedZeroDatapoints.Add(numZero)
}

type rescaleResult int

const (
	untouched rescaleResult = iota
	rescaled
	skippedZero
)

// rescale replaces integer and float values by their natural logarithm. Zero and other kinds are left as is.
//
// Negative values result in NaN.
func rescale(value *base.DatapointValue) rescaleResult {
	switch value.Kind() {
	case base.KindInteger:
		i := value.Int()
		if i == 0 {
			return skippedZero
		}
		value.SetFloat(math.Log(float64(i)))
		return rescaled
	case base.KindFloat:
		v := value.Float()
		if v == 0 {
			return skippedZero
		}
		value.SetFloat(math.Log(v))
		return rescaled
	default:
		return untouched
	}
}
