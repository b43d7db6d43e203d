package cmd

import (
	"fmt"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/plugin"
	"github.com/relex/log-filter/util"
)

type infoCommandState struct {
	Category bool `help:"Print the parsed default configuration category in YAML instead of plugin information"`
}

var infoCmd = infoCommandState{
	Category: false,
}

func (cmd *infoCommandState) run(args []string) {
	var source interface{} = plugin.Info()
	if cmd.Category {
		source = plugin.NewDefaultCategory()
	}
	text, err := util.MarshalYaml(source)
	if err != nil {
		logger.Fatal(err)
	}
	fmt.Print(text)
}
