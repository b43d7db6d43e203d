package base

import (
	"strings"
	"time"
)

// Reading defines a named and timestamped set of datapoints from one asset
//
// Readings are owned by the host pipeline. Filters may modify datapoint values in-place but never replace or free readings.
type Reading struct {
	AssetName     string
	Timestamp     time.Time // time when the reading is received by the host, might be zero
	UserTimestamp time.Time // time when the reading is taken by the sensor, might be zero
	Datapoints    []*Datapoint
}

// Datapoint defines a named value inside a Reading
type Datapoint struct {
	Name  string
	Value DatapointValue
}

// ReadingSet represents a batch of readings passed from the host to a filter and then to the next stage
type ReadingSet []*Reading

// NewReading creates a reading with the given datapoints
func NewReading(assetName string, datapoints ...*Datapoint) *Reading {
	return &Reading{
		AssetName:  assetName,
		Datapoints: datapoints,
	}
}

// NewDatapoint creates a named datapoint
func NewDatapoint(name string, value DatapointValue) *Datapoint {
	return &Datapoint{
		Name:  name,
		Value: value,
	}
}

// GetDatapoint finds the first datapoint of the given name, or nil
func (r *Reading) GetDatapoint(name string) *Datapoint {
	for _, dp := range r.Datapoints {
		if dp.Name == name {
			return dp
		}
	}
	return nil
}

// RawLength approximates the serialized size of reading for statistics
func (r *Reading) RawLength() int {
	length := len(r.AssetName)
	for _, dp := range r.Datapoints {
		length += dp.rawLength()
	}
	return length
}

func (r *Reading) String() string {
	parts := make([]string, len(r.Datapoints))
	for i, dp := range r.Datapoints {
		parts[i] = dp.String()
	}
	return r.AssetName + ": {" + strings.Join(parts, ", ") + "}"
}

func (dp *Datapoint) String() string {
	return dp.Name + ": " + dp.Value.String()
}

func (dp *Datapoint) rawLength() int {
	length := len(dp.Name)
	switch dp.Value.kind {
	case KindInteger, KindFloat:
		length += 8
	case KindString:
		length += len(dp.Value.strVal)
	case KindFloatArray:
		length += 8 * len(dp.Value.arrayVal)
	case KindObject:
		for _, child := range dp.Value.objVal {
			length += child.rawLength()
		}
	}
	return length
}

// Len returns the numbers of readings in the set
func (set ReadingSet) Len() int {
	return len(set)
}

// AssetNames lists asset names of all readings in the same order
func (set ReadingSet) AssetNames() []string {
	names := make([]string, len(set))
	for i, r := range set {
		names[i] = r.AssetName
	}
	return names
}

// Clone makes a deep copy of the reading
func (r *Reading) Clone() *Reading {
	clone := *r
	clone.Datapoints = cloneDatapoints(r.Datapoints)
	return &clone
}

// Clone makes a deep copy of all readings in the set
func (set ReadingSet) Clone() ReadingSet {
	clone := make(ReadingSet, len(set))
	for i, r := range set {
		clone[i] = r.Clone()
	}
	return clone
}

func cloneDatapoints(datapoints []*Datapoint) []*Datapoint {
	if datapoints == nil {
		return nil
	}
	clone := make([]*Datapoint, len(datapoints))
	for i, dp := range datapoints {
		value := dp.Value
		switch value.kind {
		case KindFloatArray:
			value.arrayVal = append([]float64(nil), value.arrayVal...)
		case KindObject:
			value.objVal = cloneDatapoints(value.objVal)
		}
		clone[i] = NewDatapoint(dp.Name, value)
	}
	return clone
}
