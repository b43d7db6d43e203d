package output

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

type writerMetrics struct {
	writtenBatchesTotal  promext.RWCounter
	writtenReadingsTotal promext.RWCounter
	writtenChunksTotal   promext.RWCounter
	writtenBytesTotal    promext.RWCounter // after compression if any
	errorsTotal          promext.RWCounter
}

func newWriterMetrics(metricCreator promreg.MetricCreator, outputType string) writerMetrics {
	outputMetricCreator := metricCreator.AddOrGetPrefix("output_", []string{"output"}, []string{outputType})
	return writerMetrics{
		writtenBatchesTotal:  outputMetricCreator.AddOrGetCounter("written_batches_total", "Numbers of received batches", nil, nil),
		writtenReadingsTotal: outputMetricCreator.AddOrGetCounter("written_readings_total", "Numbers of written readings", nil, nil),
		writtenChunksTotal:   outputMetricCreator.AddOrGetCounter("written_chunks_total", "Numbers of flushed chunks", nil, nil),
		writtenBytesTotal:    outputMetricCreator.AddOrGetCounter("written_bytes_total", "Total length in bytes of flushed chunks", nil, nil),
		errorsTotal:          outputMetricCreator.AddOrGetCounter("errors_total", "Numbers of encoding or writing errors", nil, nil),
	}
}
