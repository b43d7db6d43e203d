// Package tracker provides an in-process asset tracker, recording which filters have modified which assets
package tracker

import (
	"strings"

	"github.com/puzpuzpuz/xsync"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/defs"
	"golang.org/x/exp/slices"
)

// Tuple identifies one tracked combination of service, asset and event
type Tuple struct {
	Service string
	Asset   string
	Event   string
}

// AssetTracker deduplicates tracking tuples in memory
//
// It's safe for concurrent use and never blocks callers beyond a map lookup.
type AssetTracker struct {
	logger     logger.Logger
	tuples     *xsync.MapOf[Tuple]
	newTuples  promext.RWCounter
	trackCalls promext.RWCounter
	onNewTuple func(tuple Tuple) // optional, e.g. to persist the tuple in the host
}

// NewAssetTracker creates an AssetTracker
func NewAssetTracker(parentLogger logger.Logger, metricCreator promreg.MetricCreator) *AssetTracker {
	tmc := metricCreator.AddOrGetPrefix("asset_tracker_", nil, nil)
	return &AssetTracker{
		logger:     parentLogger.WithField(defs.LabelComponent, "AssetTracker"),
		tuples:     xsync.NewMapOf[Tuple](),
		newTuples:  tmc.AddOrGetCounter("tuples_total", "Numbers of unique tracking tuples", nil, nil),
		trackCalls: tmc.AddOrGetCounter("calls_total", "Numbers of tracking calls", nil, nil),
		onNewTuple: nil,
	}
}

// OnNewTuple sets a callback for each new tuple. It must be set before the tracker is used.
func (tracker *AssetTracker) OnNewTuple(callback func(tuple Tuple)) {
	tracker.onNewTuple = callback
}

// AddAssetTrackingTuple records the tuple if it's new
func (tracker *AssetTracker) AddAssetTrackingTuple(serviceName string, assetName string, event string) {
	tracker.trackCalls.Inc()
	tuple := Tuple{Service: serviceName, Asset: assetName, Event: event}
	if _, loaded := tracker.tuples.LoadOrStore(tuple.key(), tuple); loaded {
		return
	}
	tracker.newTuples.Inc()
	tracker.logger.WithField(defs.LabelAsset, assetName).Infof("new tracking tuple: service=%s event=%s", serviceName, event)
	if cb := tracker.onNewTuple; cb != nil {
		cb(tuple)
	}
}

// Contains checks whether the tuple has been recorded
func (tracker *AssetTracker) Contains(serviceName string, assetName string, event string) bool {
	tuple := Tuple{Service: serviceName, Asset: assetName, Event: event}
	_, found := tracker.tuples.Load(tuple.key())
	return found
}

// Tuples lists all recorded tuples sorted by service, asset and event
func (tracker *AssetTracker) Tuples() []Tuple {
	keys := make([]string, 0, 100)
	tracker.tuples.Range(func(key string, _ Tuple) bool {
		keys = append(keys, key)
		return true
	})
	slices.Sort(keys)

	result := make([]Tuple, 0, len(keys))
	for _, key := range keys {
		if tuple, found := tracker.tuples.Load(key); found {
			result = append(result, tuple)
		}
	}
	return result
}

func (tuple Tuple) key() string {
	return strings.Join([]string{tuple.Service, tuple.Asset, tuple.Event}, "\x00")
}
