package base

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relex/log-filter/util"
	"gopkg.in/yaml.v3"
)

// timestamp layouts accepted in reading documents, the 2nd is the one used by the host's JSON export
var readingTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalYAML decodes a reading from a YAML or JSON document
//
// Integers and floating-point numbers are distinguished by their resolved tags, e.g. 10 is an integer and 10.0 is a float.
// Key order of "readings" is kept as datapoint order.
func (r *Reading) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return r.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return util.NewYamlError(value, "reading must be a map")
	}
	*r = Reading{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "asset", "asset_code":
			if val.Kind != yaml.ScalarNode {
				return util.NewYamlError(val, fmt.Sprintf(".%s must be a string", key.Value))
			}
			r.AssetName = val.Value
		case "timestamp":
			tm, err := parseReadingTime(val)
			if err != nil {
				return err
			}
			r.Timestamp = tm
		case "user_ts":
			tm, err := parseReadingTime(val)
			if err != nil {
				return err
			}
			r.UserTimestamp = tm
		case "readings", "reading":
			dps, err := decodeDatapoints(val)
			if err != nil {
				return err
			}
			r.Datapoints = dps
		default:
			return util.NewYamlError(key, fmt.Sprintf("unknown field '%s'", key.Value))
		}
	}
	if len(r.AssetName) == 0 {
		return util.NewYamlError(value, ".asset is unspecified")
	}
	return nil
}

// MarshalYAML provides custom marshalling to keep datapoint order and value kinds
func (r *Reading) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, newStrNode("asset"), newStrNode(r.AssetName))
	if !r.Timestamp.IsZero() {
		root.Content = append(root.Content, newStrNode("timestamp"), newStrNode(r.Timestamp.Format(time.RFC3339Nano)))
	}
	if !r.UserTimestamp.IsZero() {
		root.Content = append(root.Content, newStrNode("user_ts"), newStrNode(r.UserTimestamp.Format(time.RFC3339Nano)))
	}
	root.Content = append(root.Content, newStrNode("readings"), encodeDatapoints(r.Datapoints))
	return root, nil
}

func parseReadingTime(node *yaml.Node) (time.Time, error) {
	var lastErr error
	for _, layout := range readingTimeLayouts {
		tm, err := time.Parse(layout, node.Value)
		if err == nil {
			return tm, nil
		}
		lastErr = err
	}
	return time.Time{}, util.NewYamlError(node, fmt.Sprintf("invalid timestamp: %s", lastErr.Error()))
}

func decodeDatapoints(node *yaml.Node) ([]*Datapoint, error) {
	if node.Kind == yaml.AliasNode {
		return decodeDatapoints(node.Alias)
	}
	if node.Kind != yaml.MappingNode {
		return nil, util.NewYamlError(node, "datapoints must be a map")
	}
	dps := make([]*Datapoint, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		v, err := decodeDatapointValue(val)
		if err != nil {
			return nil, err
		}
		dps = append(dps, NewDatapoint(key.Value, v))
	}
	return dps, nil
}

func decodeDatapointValue(node *yaml.Node) (DatapointValue, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeDatapointValue(node.Alias)
	case yaml.MappingNode:
		children, err := decodeDatapoints(node)
		if err != nil {
			return DatapointValue{}, err
		}
		return ObjectValue(children), nil
	case yaml.SequenceNode:
		var arr []float64
		if err := node.Decode(&arr); err != nil {
			return DatapointValue{}, util.NewYamlError(node, fmt.Sprintf("invalid array: %s", err.Error()))
		}
		return FloatArrayValue(arr), nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return DatapointValue{}, util.NewYamlError(node, err.Error())
			}
			return IntValue(i), nil
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return DatapointValue{}, util.NewYamlError(node, err.Error())
			}
			return FloatValue(f), nil
		case "!!null":
			return DatapointValue{}, nil
		default:
			return StringValue(node.Value), nil
		}
	default:
		return DatapointValue{}, util.NewYamlError(node, fmt.Sprintf("unsupported datapoint node kind %d", node.Kind))
	}
}

func encodeDatapoints(dps []*Datapoint) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, dp := range dps {
		node.Content = append(node.Content, newStrNode(dp.Name), encodeDatapointValue(&dp.Value))
	}
	return node
}

func encodeDatapointValue(v *DatapointValue) *yaml.Node {
	switch v.kind {
	case KindInteger:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.intVal, 10)}
	case KindFloat:
		return newFloatNode(v.floatVal)
	case KindString:
		return newStrNode(v.strVal)
	case KindFloatArray:
		node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, f := range v.arrayVal {
			node.Content = append(node.Content, newFloatNode(f))
		}
		return node
	case KindObject:
		return encodeDatapoints(v.objVal)
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func newStrNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func newFloatNode(f float64) *yaml.Node {
	var text string
	switch {
	case math.IsNaN(f):
		text = ".nan"
	case math.IsInf(f, 1):
		text = ".inf"
	case math.IsInf(f, -1):
		text = "-.inf"
	default:
		text = strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0" // keep float kind when decoded again
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
}
