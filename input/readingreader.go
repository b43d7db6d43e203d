// Package input provides readers of readings from files, to feed filters outside of the host pipeline
package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/defs"
	"github.com/relex/log-filter/util"
	"gopkg.in/yaml.v3"
)

type readingSource struct {
	name string
	open func() (io.ReadCloser, error)
}

// ReadingReader reads readings from a series of YAML or JSON streams
//
// Each document in a stream is either a single reading or a list of readings.
type ReadingReader struct {
	logger  logger.Logger
	sources []readingSource
	current io.ReadCloser
	decoder *yaml.Decoder
	pending base.ReadingSet
	numRead int
}

// NewReadingReader creates a ReadingReader of files in the given path, which may be a wildcard pattern or a directory
func NewReadingReader(parentLogger logger.Logger, pathPattern string) (*ReadingReader, error) {
	paths, err := util.ListFiles(pathPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list '%s': %w", pathPattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no file found in '%s'", pathPattern)
	}
	sources := make([]readingSource, len(paths))
	for i, path := range paths {
		p := path
		sources[i] = readingSource{
			name: p,
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		}
	}
	return newReadingReader(parentLogger, sources), nil
}

// NewReadingReaderFromString creates a ReadingReader of in-memory contents
func NewReadingReaderFromString(parentLogger logger.Logger, name string, contents string) *ReadingReader {
	return newReadingReader(parentLogger, []readingSource{{
		name: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(contents)), nil },
	}})
}

func newReadingReader(parentLogger logger.Logger, sources []readingSource) *ReadingReader {
	return &ReadingReader{
		logger:  parentLogger.WithField(defs.LabelComponent, "ReadingReader"),
		sources: sources,
		current: nil,
		decoder: nil,
		pending: nil,
		numRead: 0,
	}
}

// NextBatch reads up to maxReadings readings, or returns io.EOF if all sources are exhausted
func (rr *ReadingReader) NextBatch(maxReadings int) (base.ReadingSet, error) {
	if maxReadings <= 0 {
		maxReadings = defs.InputBatchMaxReadings
	}
	for len(rr.pending) < maxReadings {
		if err := rr.readDocument(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	if len(rr.pending) == 0 {
		return nil, io.EOF
	}

	n := util.MinInt(maxReadings, len(rr.pending))
	batch := rr.pending[:n:n]
	rr.pending = rr.pending[n:]
	rr.numRead += len(batch)
	return batch, nil
}

// NumRead returns the numbers of readings returned so far
func (rr *ReadingReader) NumRead() int {
	return rr.numRead
}

// Close closes the current source if any
func (rr *ReadingReader) Close() error {
	if rr.current == nil {
		return nil
	}
	err := rr.current.Close()
	rr.current = nil
	rr.decoder = nil
	return err
}

// readDocument appends readings from the next document, opening the next source if needed. Returns io.EOF at the end.
func (rr *ReadingReader) readDocument() error {
	for {
		if rr.decoder == nil {
			if len(rr.sources) == 0 {
				return io.EOF
			}
			src := rr.sources[0]
			rr.sources = rr.sources[1:]
			file, err := src.open()
			if err != nil {
				return fmt.Errorf("failed to open '%s': %w", src.name, err)
			}
			rr.logger.Infof("reading %s", src.name)
			rr.current = file
			rr.decoder = yaml.NewDecoder(file)
		}

		doc := yaml.Node{}
		err := rr.decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			if cerr := rr.Close(); cerr != nil {
				rr.logger.Warn("failed to close: ", cerr)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to decode: %w", err)
		}
		return rr.appendDocument(&doc)
	}
}

func (rr *ReadingReader) appendDocument(doc *yaml.Node) error {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	switch node.Kind {
	case yaml.MappingNode:
		reading := &base.Reading{}
		if err := reading.UnmarshalYAML(node); err != nil {
			return err
		}
		rr.pending = append(rr.pending, reading)
	case yaml.SequenceNode:
		var readings []*base.Reading
		if err := node.Decode(&readings); err != nil {
			return err
		}
		rr.pending = append(rr.pending, readings...)
	case yaml.ScalarNode:
		if node.ShortTag() != "!!null" {
			return util.NewYamlError(node, "document must be a reading or a list of readings")
		}
	default:
		return util.NewYamlError(node, "document must be a reading or a list of readings")
	}
	return nil
}
