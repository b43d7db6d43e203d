// Package testdata provides access to shared sample readings and config for testing
package testdata

import (
	"path/filepath"
	"runtime"
)

var absoluteDirPath string

func init() {
	_, thisFile, _, _ := runtime.Caller(0)
	absoluteDirPath = filepath.Dir(thisFile)
}

// GetConfigPath returns the path of sample run config
func GetConfigPath() string {
	return filepath.Join(absoluteDirPath, "config_sample.yml")
}

// GetReadingsPath returns the directory of sample reading files
func GetReadingsPath() string {
	return filepath.Join(absoluteDirPath, "readings")
}
