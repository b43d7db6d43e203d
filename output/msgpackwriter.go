package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/klauspost/compress/gzip"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/defs"
	"github.com/vmihailenco/msgpack/v4"
)

const gzipCompressionLevel = gzip.BestSpeed

// MsgpackWriter writes readings as a stream of msgpack maps, buffered in chunks
//
// With compression each chunk becomes a separate gzip member, which standard gzip readers decode as one stream.
type MsgpackWriter struct {
	logger       logger.Logger
	dest         io.WriteCloser
	useGzip      bool
	maxChunkSize int
	chunkBuffer  *bytes.Buffer // uncompressed chunk being filled
	gzipBuffer   *bytes.Buffer // compressed chunk
	encoder      *msgpack.Encoder
	metrics      writerMetrics
	lastErr      error
}

// NewMsgpackWriter creates a MsgpackWriter to the given destination, which is closed by Close
func NewMsgpackWriter(parentLogger logger.Logger, dest io.WriteCloser, useGzip bool, maxChunkSize datasize.ByteSize,
	metricCreator promreg.MetricCreator,
) *MsgpackWriter {
	chunkBuffer := bytes.NewBuffer(make([]byte, 0, int(maxChunkSize.Bytes())+1024))
	return &MsgpackWriter{
		logger:       parentLogger.WithField(defs.LabelComponent, "MsgpackWriter"),
		dest:         dest,
		useGzip:      useGzip,
		maxChunkSize: int(maxChunkSize.Bytes()),
		chunkBuffer:  chunkBuffer,
		gzipBuffer:   &bytes.Buffer{},
		encoder:      msgpack.NewEncoder(chunkBuffer),
		metrics:      newWriterMetrics(metricCreator, TypeMsgpack),
		lastErr:      nil,
	}
}

// Write encodes the batch and flushes full chunks
//
// Errors are logged and counted. Readings failing to encode are dropped from the output.
func (w *MsgpackWriter) Write(handle base.OutputHandle, readings base.ReadingSet) {
	w.metrics.writtenBatchesTotal.Inc()
	for _, reading := range readings {
		start := w.chunkBuffer.Len()
		if err := w.encoder.Encode(reading); err != nil {
			w.chunkBuffer.Truncate(start)
			w.recordError(fmt.Errorf("failed to encode reading of '%s': %w", reading.AssetName, err))
			continue
		}
		w.metrics.writtenReadingsTotal.Inc()
		if w.chunkBuffer.Len() >= w.maxChunkSize {
			w.flushChunk()
		}
	}
}

// Close flushes the remaining chunk and closes the destination
//
// The last error during writing is returned if no new error occurs.
func (w *MsgpackWriter) Close() error {
	w.flushChunk()
	if err := w.dest.Close(); err != nil {
		return err
	}
	return w.lastErr
}

func (w *MsgpackWriter) flushChunk() {
	if w.chunkBuffer.Len() == 0 {
		return
	}
	defer w.chunkBuffer.Reset()

	data := w.chunkBuffer.Bytes()
	if w.useGzip {
		w.gzipBuffer.Reset()
		gzWriter, err := gzip.NewWriterLevel(w.gzipBuffer, gzipCompressionLevel)
		if err != nil {
			w.recordError(fmt.Errorf("failed to create gzip writer: %w", err))
			return
		}
		if _, err := gzWriter.Write(data); err != nil {
			w.recordError(fmt.Errorf("error writing to gzip writer: %w", err))
			return
		}
		if err := gzWriter.Close(); err != nil {
			w.recordError(fmt.Errorf("failed to close gzip writer: %w", err))
			return
		}
		data = w.gzipBuffer.Bytes()
	}

	if _, err := w.dest.Write(data); err != nil {
		w.recordError(fmt.Errorf("failed to write chunk: %w", err))
		return
	}
	w.metrics.writtenChunksTotal.Inc()
	w.metrics.writtenBytesTotal.Add(uint64(len(data)))
}

func (w *MsgpackWriter) recordError(err error) {
	w.metrics.errorsTotal.Inc()
	w.logger.Error(err)
	w.lastErr = err
}
