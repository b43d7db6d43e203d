// Package test provides self-benchmarks of the filter with sample readings
package test

import (
	"errors"
	"fmt"
	"io"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/output"
	"github.com/relex/log-filter/run"
)

type benchmarkMetric struct {
	fmt string
	val float64
}

// RunBenchmarkFilter benchmarks the filter configured in configFile over its input, repeated in memory
//
// If outputType is not empty, it overrides the configured output, e.g. "null" to measure the filter alone.
func RunBenchmarkFilter(configFile string, outputType string, repeat int) {
	mfactory := promreg.NewMetricFactory("benchfilter_", nil, nil)
	loader, err := run.NewLoaderFromConfigFile(configFile, mfactory)
	if err != nil {
		logger.Fatal(err)
	}
	if len(outputType) > 0 {
		loader.Output = output.Config{Type: outputType}
	}

	inputBatches := loadInputBatches(loader)
	numReadings, numDatapoints := countReadings(inputBatches)
	logger.Infof("loaded %d readings with %d datapoints in %d batches", numReadings, numDatapoints, len(inputBatches))

	// clone in advance since the filter modifies readings in-place
	allBatches := make([]base.ReadingSet, 0, len(inputBatches)*repeat)
	for i := 0; i < repeat; i++ {
		for _, batch := range inputBatches {
			allBatches = append(allBatches, batch.Clone())
		}
	}

	writer, err := loader.NewWriter(logger.Root())
	if err != nil {
		logger.Fatal(err)
	}
	handle, err := loader.InitFilter(logger.Root(), "benchmark", writer.Write)
	if err != nil {
		logger.Fatal(err)
	}

	costTracker := StartCostTracking()
	for _, batch := range allBatches {
		handle.Ingest(batch)
	}
	report := costTracker.Report()

	handle.Shutdown()
	if err := writer.Close(); err != nil {
		logger.Error("failed to close output: ", err)
	}

	reportBenchmarkResult("BenchmarkFilter", numReadings*repeat, numDatapoints*repeat, report)
	logger.Info(promext.DumpMetrics("", true, true, mfactory))
}

func loadInputBatches(loader *run.Loader) []base.ReadingSet {
	reader, err := loader.OpenInput(logger.Root())
	if err != nil {
		logger.Fatal(err)
	}
	defer reader.Close()

	batches := make([]base.ReadingSet, 0, 100)
	for {
		batch, err := reader.NextBatch(loader.Input.BatchSize)
		if errors.Is(err, io.EOF) {
			return batches
		}
		if err != nil {
			logger.Fatal(err)
		}
		batches = append(batches, batch)
	}
}

func countReadings(batches []base.ReadingSet) (int, int) {
	numReadings := 0
	numDatapoints := 0
	for _, batch := range batches {
		numReadings += len(batch)
		for _, reading := range batch {
			numDatapoints += len(reading.Datapoints)
		}
	}
	return numReadings, numDatapoints
}

func reportBenchmarkResult(title string, numReadings int, numDatapoints int, report CostReport) {
	metrics := []benchmarkMetric{
		{fmt: "%.0f reading/sec", val: float64(numReadings) / report.RealTime.Seconds()},
		{fmt: "%.0f datapoint/sec", val: float64(numDatapoints) / report.RealTime.Seconds()},
		{fmt: "%0.2f alloc/reading", val: float64(report.NumHeapAllocs) / float64(numReadings)},
		{fmt: "%0.2f%% user", val: 100.0 * report.UserTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% sys", val: 100.0 * report.SystemTime.Seconds() / report.RealTime.Seconds()},
		{fmt: "%0.2f%% gc", val: 100.0 * report.GCCPUFraction},
		{fmt: "%.02f sec", val: report.RealTime.Seconds()},
	}
	printBenchmarkMetrics(title, metrics)
}

func printBenchmarkMetrics(title string, metrics []benchmarkMetric) {
	sb := make([]byte, 0, 200)
	sb = append(sb, fmt.Sprintf("%s:", title)...)
	for _, m := range metrics {
		sb = append(sb, fmt.Sprintf("\t"+m.fmt, m.val)...)
	}
	fmt.Println(string(sb))
}
