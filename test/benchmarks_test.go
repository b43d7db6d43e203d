package test

import (
	"testing"

	"github.com/relex/log-filter/testdata"
)

func TestRunBenchmarkFilter(t *testing.T) {
	RunBenchmarkFilter(testdata.GetConfigPath(), "null", 3)
}
