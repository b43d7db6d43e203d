package flog

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

type filterMetrics struct {
	ingestedBatches        promext.RWCounter
	transformedReadings    promext.RWCounter
	passedReadings         promext.RWCounter // readings forwarded untouched: not matched or filter disabled
	rescaledDatapoints     promext.RWCounter
	skippedZeroDatapoints  promext.RWCounter
	reconfigurations       promext.RWCounter
	failedReconfigurations promext.RWCounter
}

func newFilterMetrics(metricCreator promreg.MetricCreator) filterMetrics {
	fmc := metricCreator.AddOrGetPrefix("filter_", nil, nil)
	return filterMetrics{
		ingestedBatches:        fmc.AddOrGetCounter("ingested_batches_total", "Numbers of ingested batches", nil, nil),
		transformedReadings:    fmc.AddOrGetCounter("transformed_readings_total", "Numbers of readings with values rescaled", nil, nil),
		passedReadings:         fmc.AddOrGetCounter("passed_readings_total", "Numbers of readings forwarded untouched", nil, nil),
		rescaledDatapoints:     fmc.AddOrGetCounter("rescaled_datapoints_total", "Numbers of numeric datapoints rescaled", nil, nil),
		skippedZeroDatapoints:  fmc.AddOrGetCounter("skipped_zero_datapoints_total", "Numbers of numeric datapoints skipped for being zero", nil, nil),
		reconfigurations:       fmc.AddOrGetCounter("reconfigurations_total", "Numbers of successful reconfigurations", nil, nil),
		failedReconfigurations: fmc.AddOrGetCounter("failed_reconfigurations_total", "Numbers of rejected reconfigurations", nil, nil),
	}
}
