package output

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/defs"
)

// NullWriter counts and discards everything
type NullWriter struct {
	logger  logger.Logger
	metrics writerMetrics
}

// NewNullWriter creates a NullWriter
func NewNullWriter(parentLogger logger.Logger, metricCreator promreg.MetricCreator) *NullWriter {
	return &NullWriter{
		logger:  parentLogger.WithField(defs.LabelComponent, "NullWriter"),
		metrics: newWriterMetrics(metricCreator, TypeNull),
	}
}

// Write discards the batch
func (w *NullWriter) Write(handle base.OutputHandle, readings base.ReadingSet) {
	w.metrics.writtenBatchesTotal.Inc()
	w.metrics.writtenReadingsTotal.Add(uint64(len(readings)))
}

// Close does nothing
func (w *NullWriter) Close() error {
	w.logger.Debug("closed")
	return nil
}
