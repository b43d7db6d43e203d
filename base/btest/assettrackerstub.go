package btest

import (
	"sync"
)

// TrackingTuple is one call recorded by StubAssetTracker
type TrackingTuple struct {
	Service string
	Asset   string
	Event   string
}

// StubAssetTracker records all tracking calls without deduplication, for testing
type StubAssetTracker struct {
	lock   sync.Mutex
	tuples []TrackingTuple
}

// NewStubAssetTracker creates a StubAssetTracker
func NewStubAssetTracker() *StubAssetTracker {
	return &StubAssetTracker{}
}

// AddAssetTrackingTuple implements base.AssetTracker
func (stub *StubAssetTracker) AddAssetTrackingTuple(serviceName string, assetName string, event string) {
	stub.lock.Lock()
	defer stub.lock.Unlock()
	stub.tuples = append(stub.tuples, TrackingTuple{Service: serviceName, Asset: assetName, Event: event})
}

// Tuples returns all recorded calls in order
func (stub *StubAssetTracker) Tuples() []TrackingTuple {
	stub.lock.Lock()
	defer stub.lock.Unlock()
	return append([]TrackingTuple(nil), stub.tuples...)
}

// Assets returns asset names of all recorded calls in order
func (stub *StubAssetTracker) Assets() []string {
	stub.lock.Lock()
	defer stub.lock.Unlock()
	assets := make([]string, len(stub.tuples))
	for i, t := range stub.tuples {
		assets[i] = t.Asset
	}
	return assets
}
