package output

import (
	"fmt"
	"io"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/defs"
	"gopkg.in/yaml.v3"
)

// YamlWriter dumps each batch as a YAML document, readable by input.ReadingReader
type YamlWriter struct {
	logger  logger.Logger
	dest    io.WriteCloser
	encoder *yaml.Encoder
	metrics writerMetrics
	numDocs int
	lastErr error
}

// NewYamlWriter creates a YamlWriter to the given destination, which is closed by Close
func NewYamlWriter(parentLogger logger.Logger, dest io.WriteCloser, metricCreator promreg.MetricCreator) *YamlWriter {
	encoder := yaml.NewEncoder(dest)
	encoder.SetIndent(2)
	return &YamlWriter{
		logger:  parentLogger.WithField(defs.LabelComponent, "YamlWriter"),
		dest:    dest,
		encoder: encoder,
		metrics: newWriterMetrics(metricCreator, TypeYaml),
		numDocs: 0,
		lastErr: nil,
	}
}

// Write dumps the batch. Empty batches are skipped.
func (w *YamlWriter) Write(handle base.OutputHandle, readings base.ReadingSet) {
	w.metrics.writtenBatchesTotal.Inc()
	if len(readings) == 0 {
		return
	}
	if err := w.encoder.Encode([]*base.Reading(readings)); err != nil {
		w.metrics.errorsTotal.Inc()
		w.lastErr = fmt.Errorf("failed to write batch: %w", err)
		w.logger.Error(w.lastErr)
		return
	}
	w.numDocs++
	w.metrics.writtenReadingsTotal.Add(uint64(len(readings)))
	w.metrics.writtenChunksTotal.Inc()
}

// Close finishes the YAML stream and closes the destination
//
// The destination is always closed. Nothing is written to it if no reading has been.
func (w *YamlWriter) Close() error {
	var encErr error
	if w.numDocs > 0 { // yaml.v3 fails to close a stream without documents
		encErr = w.encoder.Close()
	}
	if err := w.dest.Close(); err != nil {
		return err
	}
	if encErr != nil {
		return fmt.Errorf("failed to finish stream: %w", encErr)
	}
	return w.lastErr
}
