package run

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/input"
	"github.com/relex/log-filter/output"
	"github.com/relex/log-filter/plugin"
	"github.com/relex/log-filter/tracker"
)

// Loader loads configuration from file and prepares the stages around the filter
//
// Loader takes care of everything derived from the config file, but doesn't start processing, see Run()
type Loader struct {
	filepath string // config file path

	Config
	MetricCreator promreg.MetricCreator
	AssetTracker  *tracker.AssetTracker
}

// NewLoaderFromConfigFile creates a Loader from the config file at path
func NewLoaderFromConfigFile(filepath string, metricCreator promreg.MetricCreator) (*Loader, error) {
	config, configErr := LoadConfigFile(filepath)
	if configErr != nil {
		return nil, configErr
	}

	return &Loader{
		filepath: filepath,

		Config:        *config,
		MetricCreator: metricCreator,
		AssetTracker:  tracker.NewAssetTracker(logger.Root(), metricCreator),
	}, nil
}

// ConfigPath returns the path of config file
func (loader *Loader) ConfigPath() string {
	return loader.filepath
}

// OpenInput opens the configured input files
func (loader *Loader) OpenInput(parentLogger logger.Logger) (*input.ReadingReader, error) {
	return input.NewReadingReader(parentLogger, loader.Input.Path)
}

// NewWriter creates the configured output writer
func (loader *Loader) NewWriter(parentLogger logger.Logger) (output.Writer, error) {
	return loader.Output.NewWriter(parentLogger, loader.MetricCreator)
}

// InitFilter creates a filter instance forwarding to the given output
func (loader *Loader) InitFilter(parentLogger logger.Logger, outHandle base.OutputHandle, out base.OutputStream) (*plugin.Handle, error) {
	return plugin.Init(loader.Filter, outHandle, out, loader.AssetTracker, parentLogger, loader.MetricCreator)
}
