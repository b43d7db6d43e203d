package cmd

import (
	"github.com/relex/log-filter/test"
)

type benchmarkCommandState struct {
	Config string `help:"Configuration file path, its input is loaded into memory and repeated"`
	Output string `help:"Output type override:\n'null': abandon all output\n'': (empty) write as configured"`
	Repeat int    `help:"Repeat times"`
}

var benchCmd = benchmarkCommandState{
	Config: "testdata/config_sample.yml",
	Output: "null",
	Repeat: 10000,
}

func (cmd *benchmarkCommandState) run(_ []string) {
	test.RunBenchmarkFilter(cmd.Config, cmd.Output, cmd.Repeat)
}
