// Package plugin exposes the log filter through the entry points expected by the host's plugin loader
//
// The host calls Info to read the default configuration, Init to create an instance, then Ingest and Reconfigure
// any number of times, and finally Shutdown.
package plugin

import (
	"fmt"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/base/bconfig"
	"github.com/relex/log-filter/defs"
	"github.com/relex/log-filter/filter/flog"
)

// Version is the plugin version, set by linker flags
var Version = "1.0.0"

// DefaultConfig is the default configuration category of the filter, in JSON
const DefaultConfig = `{
    "plugin": {
        "description": "Log filter plugin",
        "type": "string",
        "default": "log",
        "readonly": "true"
    },
    "enable": {
        "description": "A switch that can be used to enable or disable execution of the log filter.",
        "type": "boolean",
        "displayName": "Enabled",
        "default": "false"
    },
    "match": {
        "description": "An optional regular expression to match in the asset name.",
        "type": "string",
        "default": "",
        "order": "1",
        "displayName": "Asset filter"
    },
    "matchType": {
        "description": "How to interpret the asset filter: regex or glob.",
        "type": "enumeration",
        "options": ["regex", "glob"],
        "default": "regex",
        "order": "2",
        "displayName": "Asset filter type"
    }
}`

// Information describes the plugin to the host
type Information struct {
	Name             string `yaml:"name"`
	Version          string `yaml:"version"`
	Flags            uint   `yaml:"flags"`
	Type             string `yaml:"type"`
	InterfaceVersion string `yaml:"interface"`
	DefaultConfig    string `yaml:"config"`
}

// Handle is the opaque plugin instance returned by Init
type Handle struct {
	filter *flog.Filter
}

// Info returns the information about this plugin
func Info() Information {
	return Information{
		Name:             defs.LogFilterName,
		Version:          Version,
		Flags:            0,
		Type:             defs.LogFilterType,
		InterfaceVersion: defs.LogFilterInterfaceVersion,
		DefaultConfig:    DefaultConfig,
	}
}

// NewDefaultCategory creates a configuration category from DefaultConfig
func NewDefaultCategory() *bconfig.ConfigCategory {
	category, err := bconfig.ParseConfigCategory(defs.LogFilterName, DefaultConfig)
	if err != nil {
		logger.Panic("invalid default config: ", err)
	}
	return category
}

// Init creates a filter instance
//
// The output stream is called with outHandle and each ingested batch. The asset tracker may be nil.
func Init(category *bconfig.ConfigCategory, outHandle base.OutputHandle, output base.OutputStream,
	assetTracker base.AssetTracker, parentLogger logger.Logger, metricCreator promreg.MetricCreator,
) (*Handle, error) {
	if category == nil {
		category = NewDefaultCategory()
	}
	f, err := flog.NewFilter(defs.LogFilterName, category, outHandle, output, assetTracker, parentLogger, metricCreator)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s filter: %w", defs.LogFilterName, err)
	}
	return &Handle{filter: f}, nil
}

// Ingest passes a batch of readings to the filter instance
func (h *Handle) Ingest(readings base.ReadingSet) {
	h.filter.Ingest(readings)
}

// Reconfigure passes a new configuration snapshot in JSON to the filter instance
func (h *Handle) Reconfigure(newConfig string) error {
	return h.filter.Reconfigure(newConfig)
}

// Shutdown shuts down the filter instance
func (h *Handle) Shutdown() {
	h.filter.Shutdown()
}

// Filter returns the underlying filter
func (h *Handle) Filter() base.Filter {
	return h.filter
}
