package base

import (
	"fmt"
	"strconv"
	"strings"
)

// DatapointKind defines the type of value held by DatapointValue
type DatapointKind int

// Kinds of DatapointValue
const (
	KindUnknown DatapointKind = iota
	KindInteger
	KindFloat
	KindString
	KindFloatArray
	KindObject
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindInteger:    "integer",
	KindFloat:      "float",
	KindString:     "string",
	KindFloatArray: "floatArray",
	KindObject:     "object",
}

func (kind DatapointKind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return "DatapointKind(" + strconv.Itoa(int(kind)) + ")"
	}
	return kindNames[kind]
}

// DatapointValue is a tagged union of the values a Datapoint may carry
//
// Only the member matching Kind() is meaningful. The zero value is of KindUnknown.
type DatapointValue struct {
	kind     DatapointKind
	intVal   int64
	floatVal float64
	strVal   string
	arrayVal []float64
	objVal   []*Datapoint
}

// IntValue creates an integer value
func IntValue(v int64) DatapointValue {
	return DatapointValue{kind: KindInteger, intVal: v}
}

// FloatValue creates a floating-point value
func FloatValue(v float64) DatapointValue {
	return DatapointValue{kind: KindFloat, floatVal: v}
}

// StringValue creates a string value
func StringValue(v string) DatapointValue {
	return DatapointValue{kind: KindString, strVal: v}
}

// FloatArrayValue creates an array value. The slice is not copied.
func FloatArrayValue(v []float64) DatapointValue {
	return DatapointValue{kind: KindFloatArray, arrayVal: v}
}

// ObjectValue creates a nested value made of child datapoints. The slice is not copied.
func ObjectValue(children []*Datapoint) DatapointValue {
	return DatapointValue{kind: KindObject, objVal: children}
}

// Kind returns the kind of held value
func (v *DatapointValue) Kind() DatapointKind {
	return v.kind
}

// Int returns the integer value, only valid for KindInteger
func (v *DatapointValue) Int() int64 {
	return v.intVal
}

// Float returns the floating-point value, only valid for KindFloat
func (v *DatapointValue) Float() float64 {
	return v.floatVal
}

// Str returns the string value, only valid for KindString
func (v *DatapointValue) Str() string {
	return v.strVal
}

// FloatArray returns the array value, only valid for KindFloatArray
func (v *DatapointValue) FloatArray() []float64 {
	return v.arrayVal
}

// Object returns the nested datapoints, only valid for KindObject
func (v *DatapointValue) Object() []*Datapoint {
	return v.objVal
}

// SetInt replaces the value in-place with an integer
func (v *DatapointValue) SetInt(i int64) {
	*v = DatapointValue{kind: KindInteger, intVal: i}
}

// SetFloat replaces the value in-place with a floating-point number
//
// An integer value becomes KindFloat after the call.
func (v *DatapointValue) SetFloat(f float64) {
	*v = DatapointValue{kind: KindFloat, floatVal: f}
}

func (v DatapointValue) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.intVal, 10)
	case KindFloat:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.strVal)
	case KindFloatArray:
		parts := make([]string, len(v.arrayVal))
		for i, f := range v.arrayVal {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		parts := make([]string, len(v.objVal))
		for i, dp := range v.objVal {
			parts[i] = dp.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
