package run

import (
	"fmt"
	"path/filepath"

	"github.com/relex/log-filter/base/bconfig"
	"github.com/relex/log-filter/defs"
	"github.com/relex/log-filter/filter/flog"
	"github.com/relex/log-filter/output"
	"github.com/relex/log-filter/plugin"
	"github.com/relex/log-filter/util"
)

// Config defines the root of run config file
type Config struct {
	Filter *bconfig.ConfigCategory `yaml:"filter"` // overrides of the default category, flat values or item objects
	Input  InputConfig             `yaml:"input"`
	Output output.Config           `yaml:"output"`
	Watch  bool                    `yaml:"watch"` // reload the filter section when config file changes, in addition to SIGHUP
}

// InputConfig defines the input section in config file
type InputConfig struct {
	Path      string `yaml:"path"`      // file, directory or wildcard pattern of reading documents
	BatchSize int    `yaml:"batchSize"` // max readings per ingest call, default to defs.InputBatchMaxReadings
}

// LoadConfigFile loads config from the path and verifies all sections
//
// The returned filter category is the default category overlaid by the values in config file.
//
// Relative input and output paths are resolved from the directory of config file.
func LoadConfigFile(path string) (*Config, error) {
	cref := &Config{}
	if err := util.UnmarshalYamlFile(path, cref); err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(path)
	cref.Input.Path = resolvePath(baseDir, cref.Input.Path)
	if cref.Output.Path != "-" {
		cref.Output.Path = resolvePath(baseDir, cref.Output.Path)
	}
	cref.Filter = overlayCategory(plugin.NewDefaultCategory(), cref.Filter)
	filterConfig, err := flog.ParseConfig(cref.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if err := filterConfig.VerifyConfig(); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if err := cref.Input.VerifyConfig(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := cref.Output.VerifyConfig(); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return cref, nil
}

// VerifyConfig checks configuration and fills defaults
func (cfg *InputConfig) VerifyConfig() error {
	if len(cfg.Path) == 0 {
		return fmt.Errorf(".path is unspecified")
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf(".batchSize cannot be negative: %d", cfg.BatchSize)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defs.InputBatchMaxReadings
	}
	return nil
}

func overlayCategory(defaultCategory *bconfig.ConfigCategory, overrides *bconfig.ConfigCategory) *bconfig.ConfigCategory {
	if overrides == nil {
		return defaultCategory
	}
	for _, name := range overrides.ItemNames() {
		defaultCategory.SetValue(name, overrides.GetValue(name))
	}
	return defaultCategory
}

func resolvePath(baseDir string, path string) string {
	if len(path) == 0 || filepath.IsAbs(path) || path[0] == '$' {
		return path
	}
	return filepath.Join(baseDir, path)
}
