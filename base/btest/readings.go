package btest

import (
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/util"
)

// type used to unmarshal test readings, as a list or a single reading per document
type readingList []*base.Reading

// MustParseReadings parses readings in YAML or JSON for testing, or panic
func MustParseReadings(contents string) base.ReadingSet {
	var list readingList
	if err := util.UnmarshalYamlString(contents, &list); err != nil {
		panic(err)
	}
	return base.ReadingSet(list)
}
