// Package bconfig provides the configuration category shared by all filters
package bconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relex/log-filter/util"
	"gopkg.in/yaml.v3"
)

// ConfigItem is one named item in ConfigCategory
type ConfigItem struct {
	Description string
	Type        string
	Default     string
	Value       string
	DisplayName string
	Order       string
	Readonly    bool

	hasValue bool
	Location string
}

// ConfigCategory holds the configuration items of a filter instance, in the same format used by the host
//
// An item can be specified either as a scalar value, e.g. "enable": "true", or as an item object with "default" and
// optional "value", e.g. "enable": {"type": "boolean", "default": "false", "value": "true"}.
//
// Both JSON and YAML documents are accepted since JSON is a subset of YAML.
type ConfigCategory struct {
	Name      string
	items     map[string]*ConfigItem
	itemNames []string
}

// NewConfigCategory creates an empty category
func NewConfigCategory(name string) *ConfigCategory {
	return &ConfigCategory{
		Name:      name,
		items:     make(map[string]*ConfigItem),
		itemNames: nil,
	}
}

// ParseConfigCategory parses a category from JSON or YAML contents
func ParseConfigCategory(name string, contents string) (*ConfigCategory, error) {
	category := NewConfigCategory(name)
	if len(strings.TrimSpace(contents)) == 0 {
		return category, nil
	}
	if err := util.UnmarshalYamlString(contents, category); err != nil {
		return nil, err
	}
	category.Name = name
	return category, nil
}

// UnmarshalYAML provides custom unmarshalling for both scalar items and item objects
func (c *ConfigCategory) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return c.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return util.NewYamlError(value, "configuration category must be a map")
	}
	c.items = make(map[string]*ConfigItem, len(value.Content)/2)
	c.itemNames = make([]string, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if _, exists := c.items[key.Value]; exists {
			return util.NewYamlError(key, fmt.Sprintf("duplicated item '%s'", key.Value))
		}
		item, err := parseConfigItem(val)
		if err != nil {
			return err
		}
		c.items[key.Value] = item
		c.itemNames = append(c.itemNames, key.Value)
	}
	return nil
}

// MarshalYAML exports current values only. The result is not reversible to item objects.
func (c *ConfigCategory) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.itemNames {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.items[name].GetValue()})
	}
	return node, nil
}

func (c *ConfigCategory) String() string {
	parts := make([]string, len(c.itemNames))
	for i, name := range c.itemNames {
		parts[i] = name + "=" + strconv.Quote(c.items[name].GetValue())
	}
	return c.Name + "{" + strings.Join(parts, ", ") + "}"
}

// ItemExists checks whether the named item is defined
func (c *ConfigCategory) ItemExists(name string) bool {
	_, exists := c.items[name]
	return exists
}

// GetItem returns the named item or nil
func (c *ConfigCategory) GetItem(name string) *ConfigItem {
	return c.items[name]
}

// ItemNames lists item names in definition order
func (c *ConfigCategory) ItemNames() []string {
	return c.itemNames
}

// GetValue returns the current value of the named item, or empty string if the item doesn't exist
func (c *ConfigCategory) GetValue(name string) string {
	item, exists := c.items[name]
	if !exists {
		return ""
	}
	return item.GetValue()
}

// GetString returns the current value of the named item, or the given default if the item doesn't exist
func (c *ConfigCategory) GetString(name string, defaultValue string) string {
	if !c.ItemExists(name) {
		return defaultValue
	}
	return c.GetValue(name)
}

// GetBool parses the current value of the named item as boolean, or returns the given default if the item doesn't exist or is empty
func (c *ConfigCategory) GetBool(name string, defaultValue bool) (bool, error) {
	text := strings.TrimSpace(c.GetValue(name))
	if len(text) == 0 {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(text))
	if err != nil {
		return defaultValue, fmt.Errorf(".%s: invalid boolean '%s'", name, text)
	}
	return b, nil
}

// SetValue sets the current value of the named item, creating it if necessary
func (c *ConfigCategory) SetValue(name string, value string) {
	item, exists := c.items[name]
	if !exists {
		item = &ConfigItem{}
		c.items[name] = item
		c.itemNames = append(c.itemNames, name)
	}
	item.Value = value
	item.hasValue = true
}

// GetValue returns the value of item or its default value if unset
func (item *ConfigItem) GetValue() string {
	if item.hasValue {
		return item.Value
	}
	return item.Default
}

func parseConfigItem(node *yaml.Node) (*ConfigItem, error) {
	if node.Kind == yaml.AliasNode {
		return parseConfigItem(node.Alias)
	}
	item := &ConfigItem{Location: util.GetYamlLocation(node)}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!null" {
			item.Value = node.Value
			item.hasValue = true
		}
		return item, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				continue // options, validity rules and other complex attributes are irrelevant here
			}
			switch key.Value {
			case "description":
				item.Description = val.Value
			case "type":
				item.Type = val.Value
			case "default":
				item.Default = val.Value
			case "value":
				item.Value = val.Value
				item.hasValue = true
			case "displayName":
				item.DisplayName = val.Value
			case "order":
				item.Order = val.Value
			case "readonly":
				item.Readonly = strings.EqualFold(val.Value, "true")
			}
		}
		return item, nil
	default:
		return nil, util.NewYamlError(node, "configuration item must be a scalar or a map")
	}
}
