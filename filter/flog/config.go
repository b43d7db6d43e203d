package flog

import (
	"errors"
	"fmt"

	"github.com/relex/log-filter/base/bconfig"
	"github.com/relex/log-filter/base/bmatch"
)

// ErrConfiguration is wrapped by all errors caused by invalid filter configuration
var ErrConfiguration = errors.New("invalid configuration")

// Names of configuration items
const (
	ItemEnable    = "enable"
	ItemMatch     = "match"
	ItemMatchType = "matchType"
)

// Config is the filter specific part of configuration category
type Config struct {
	Enable    bool   // default false
	Match     string // optional expression to match entire asset names, empty to transform all readings
	MatchType string // regex (default) or glob
}

// ParseConfig derives Config from configuration category, applying defaults for missing items
func ParseConfig(category *bconfig.ConfigCategory) (Config, error) {
	enable, err := category.GetBool(ItemEnable, false)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfiguration, err.Error())
	}
	matchType := category.GetString(ItemMatchType, bmatch.MatchTypeRegex)
	if !bmatch.IsSupportedMatchType(matchType) {
		return Config{}, fmt.Errorf("%w: .%s: unsupported match type '%s'", ErrConfiguration, ItemMatchType, matchType)
	}
	return Config{
		Enable:    enable,
		Match:     category.GetString(ItemMatch, ""),
		MatchType: matchType,
	}, nil
}

// NewMatcher compiles .match into a matcher, or returns nil if .match is empty
func (c Config) NewMatcher() (*bmatch.AssetMatcher, error) {
	if len(c.Match) == 0 {
		return nil, nil
	}
	matcher, err := bmatch.NewAssetMatcher(c.MatchType, c.Match)
	if err != nil {
		return nil, fmt.Errorf("%w: .%s '%s': %s", ErrConfiguration, ItemMatch, c.Match, err.Error())
	}
	return matcher, nil
}

// VerifyConfig checks the configuration without side effects
func (c Config) VerifyConfig() error {
	_, err := c.NewMatcher()
	return err
}
