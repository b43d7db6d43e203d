// Package cmd provides the command line of log filter, including the standalone runner and tools
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "log-filter rescales numeric datapoints of readings by natural logarithm", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("run ...", "Run filter over reading files", &runCmd, runCmd.run)
	config.AddCmdWithArgs("info ...", "Print plugin information and default configuration", &infoCmd, infoCmd.run)
	config.AddCmdWithArgs("benchmark ...", "Benchmark filter with the input in config file", &benchCmd, benchCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	config.Execute()
}
