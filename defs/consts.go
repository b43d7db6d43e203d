package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelName      = "name"

	LabelAsset = "asset"
)

// Identity of the log filter as registered in the host
const (
	LogFilterName             = "log"
	LogFilterType             = "filter"
	LogFilterInterfaceVersion = "1.0.0"
)

// AssetTrackingEventFilter is the event recorded by asset trackers when a filter modifies an asset
const AssetTrackingEventFilter = "Filter"
