package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/cmd"
	"github.com/relex/log-filter/plugin"
)

var version string

func main() {
	if version != "" {
		plugin.Version = version
	}
	logger.Infof("version: %s", plugin.Version)

	registerInfoMetric()

	cmd.Execute()
}

func registerInfoMetric() {
	opts := prometheus.GaugeOpts{}
	opts.Name = "log_filter_info"
	opts.Help = "log-filter application information"
	gauge := prometheus.NewGaugeVec(opts, []string{"version", "interface"})
	gauge.WithLabelValues(plugin.Version, plugin.Info().InterfaceVersion).Set(1)
	prometheus.MustRegister(gauge)
}
