// Package output provides downstream stages receiving batches forwarded by filters
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/defs"
)

// Output types
const (
	TypeMsgpack = "msgpack"
	TypeYaml    = "yaml"
	TypeNull    = "null"
)

// Writer is a downstream stage of filter output
//
// Write matches base.OutputStream and is never called concurrently by a filter.
type Writer interface {
	Write(handle base.OutputHandle, readings base.ReadingSet)
	Close() error
}

// Config defines the configuration of output writers
type Config struct {
	Type         string            `yaml:"type"`         // msgpack, yaml or null
	Path         string            `yaml:"path"`         // output file path, may contain environment variables. Empty or "-" for stdout
	Gzip         bool              `yaml:"gzip"`         // compress each chunk, msgpack only
	MaxChunkSize datasize.ByteSize `yaml:"maxChunkSize"` // max uncompressed size of buffered chunk, msgpack only
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	switch cfg.Type {
	case TypeMsgpack:
	case TypeYaml, TypeNull:
		if cfg.Gzip {
			return fmt.Errorf(".gzip is unsupported by '%s' output", cfg.Type)
		}
	case "":
		return fmt.Errorf(".type is unspecified")
	default:
		return fmt.Errorf(".type '%s' is unsupported", cfg.Type)
	}
	return nil
}

// NewWriter creates the configured output writer
func (cfg *Config) NewWriter(parentLogger logger.Logger, metricCreator promreg.MetricCreator) (Writer, error) {
	if err := cfg.VerifyConfig(); err != nil {
		return nil, err
	}
	if cfg.Type == TypeNull {
		return NewNullWriter(parentLogger, metricCreator), nil
	}

	dest, err := cfg.openDestination()
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMsgpack:
		maxChunkSize := cfg.MaxChunkSize
		if maxChunkSize.Bytes() == 0 {
			maxChunkSize = defs.OutputChunkMaxBytes
		}
		return NewMsgpackWriter(parentLogger, dest, cfg.Gzip, maxChunkSize, metricCreator), nil
	default:
		return NewYamlWriter(parentLogger, dest, metricCreator), nil
	}
}

func (cfg *Config) openDestination() (io.WriteCloser, error) {
	path := os.ExpandEnv(cfg.Path)
	if len(path) == 0 || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if strings.Contains(path, "$") {
		return nil, fmt.Errorf(".path '%s' contains undefined variables", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
