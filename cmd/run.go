package cmd

import (
	"context"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/run"
	"github.com/relex/log-filter/util"
)

type runCommandState struct {
	Config      string `help:"Configuration file path"`
	MetricsAddr string `help:"The listener address to expose Prometheus metrics and debug information, empty to disable"`
	NoReload    bool   `help:"Ignore SIGHUP instead of reloading filter configuration"`
}

var runCmd = runCommandState{
	Config:      "config.yml",
	MetricsAddr: ":9336",
	NoReload:    false,
}

func (cmd *runCommandState) run(args []string) {
	if cmd.MetricsAddr != "" {
		msrv := util.LaunchMetricsListener(cmd.MetricsAddr)
		defer func() {
			if err := msrv.Shutdown(context.Background()); err != nil {
				logger.Errorf("error shutting down metrics listener: %v", err)
			}
		}()
	}

	if err := run.Run(cmd.Config, !cmd.NoReload); err != nil {
		logger.Fatal(err)
	}
}
