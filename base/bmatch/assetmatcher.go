// Package bmatch provides matchers of asset names
package bmatch

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
)

// Supported match types
const (
	MatchTypeRegex = "regex"
	MatchTypeGlob  = "glob"
)

// AssetMatcher matches entire asset names against a compiled expression
//
// AssetMatcher is immutable and safe for concurrent use.
type AssetMatcher struct {
	match       func(asset string) bool
	description string
}

var assetMatcherConstructors = map[string]func(expression string) (*AssetMatcher, error){
	"":             newRegexMatcher,
	MatchTypeRegex: newRegexMatcher,
	MatchTypeGlob:  newGlobMatcher,
}

// IsSupportedMatchType checks whether the match type is known. Empty means regex.
func IsSupportedMatchType(matchType string) bool {
	_, found := assetMatcherConstructors[matchType]
	return found
}

// NewAssetMatcher compiles a matcher of the given type
//
// Empty expressions are invalid here. Callers should skip matching entirely if no expression is configured.
func NewAssetMatcher(matchType string, expression string) (*AssetMatcher, error) {
	create, found := assetMatcherConstructors[matchType]
	if !found {
		return nil, fmt.Errorf("unsupported match type '%s'", matchType)
	}
	if len(expression) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return create(expression)
}

// Match checks whether the whole asset name matches
func (m *AssetMatcher) Match(asset string) bool {
	return m.match(asset)
}

func (m *AssetMatcher) String() string {
	return m.description
}

func newRegexMatcher(expression string) (*AssetMatcher, error) {
	// syntax check on the original expression first, so that errors refer to what users wrote
	if _, err := regexp.Compile(expression); err != nil {
		return nil, err
	}
	regex, err := regexp.Compile("^(?:" + expression + ")$")
	if err != nil {
		return nil, err
	}
	return &AssetMatcher{
		match:       regex.MatchString,
		description: "~= " + expression,
	}, nil
}

func newGlobMatcher(expression string) (*AssetMatcher, error) {
	g, err := glob.Compile(expression)
	if err != nil {
		return nil, err
	}
	return &AssetMatcher{
		match:       g.Match,
		description: "*= " + expression,
	}, nil
}
