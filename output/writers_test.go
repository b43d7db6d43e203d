package output

import (
	"bytes"
	"compress/gzip" // builtin gzip for verification
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/base/btest"
	"github.com/relex/log-filter/input"
	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v4"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

type decodedReading struct {
	asset      string
	datapoints map[string]interface{}
	order      []string
}

func decodeReadings(t *testing.T, data []byte) []decodedReading {
	decoder := msgpack.NewDecoder(bytes.NewReader(data))
	var result []decodedReading
	for {
		numFields, err := decoder.DecodeMapLen()
		if err == io.EOF {
			return result
		}
		if !assert.NoError(t, err) {
			return result
		}
		reading := decodedReading{datapoints: map[string]interface{}{}}
		for i := 0; i < numFields; i++ {
			key, kerr := decoder.DecodeString()
			assert.NoError(t, kerr)
			switch key {
			case "asset":
				reading.asset, err = decoder.DecodeString()
			case "readings":
				var numDatapoints int
				numDatapoints, err = decoder.DecodeMapLen()
				for j := 0; j < numDatapoints; j++ {
					name, _ := decoder.DecodeString()
					value, verr := decoder.DecodeInterfaceLoose()
					assert.NoError(t, verr)
					reading.datapoints[name] = value
					reading.order = append(reading.order, name)
				}
			default:
				_, err = decoder.DecodeTime()
			}
			assert.NoError(t, err)
		}
		result = append(result, reading)
	}
}

const testBatch = `
- asset: sensorA
  timestamp: "2022-01-02T03:04:05Z"
  readings: {temp: 4.605170185988092, count: 7, label: north, empty: null}
- asset: sensorB
  readings: {v: [1.5, 2.5]}
`

func TestMsgpackWriter(t *testing.T) {
	mfactory := promreg.NewMetricFactory("testmsgpack_", nil, nil)
	dest := &bufferCloser{}
	writer := NewMsgpackWriter(logger.Root(), dest, false, 1*datasize.MB, mfactory)

	writer.Write(nil, btest.MustParseReadings(testBatch))
	assert.Equal(t, 0, dest.Len(), "not flushed before chunk is full")
	assert.NoError(t, writer.Close())
	assert.True(t, dest.closed)

	readings := decodeReadings(t, dest.Bytes())
	if assert.Len(t, readings, 2) {
		assert.Equal(t, "sensorA", readings[0].asset)
		assert.Equal(t, []string{"temp", "count", "label", "empty"}, readings[0].order)
		assert.Equal(t, 4.605170185988092, readings[0].datapoints["temp"])
		assert.EqualValues(t, 7, readings[0].datapoints["count"])
		assert.Equal(t, "north", readings[0].datapoints["label"])
		assert.Nil(t, readings[0].datapoints["empty"])
		assert.Equal(t, "sensorB", readings[1].asset)
		assert.Equal(t, []interface{}{1.5, 2.5}, readings[1].datapoints["v"])
	}

	metrics := promext.DumpMetrics("", true, false, mfactory)
	assert.Contains(t, metrics, `testmsgpack_output_written_readings_total{output="msgpack"} 2`+"\n")
	assert.Contains(t, metrics, `testmsgpack_output_written_chunks_total{output="msgpack"} 1`+"\n")
}

func TestMsgpackWriterGzipChunks(t *testing.T) {
	mfactory := promreg.NewMetricFactory("testmsgpackgz_", nil, nil)
	dest := &bufferCloser{}
	writer := NewMsgpackWriter(logger.Root(), dest, true, 100*datasize.B, mfactory)

	for i := 0; i < 10; i++ {
		writer.Write(nil, base.ReadingSet{
			base.NewReading("pump", base.NewDatapoint("flow", base.FloatValue(math.Log(float64(i+1))))),
			base.NewReading("pump", base.NewDatapoint("level", base.IntValue(int64(i)))),
		})
	}
	assert.NoError(t, writer.Close())

	reader, err := gzip.NewReader(bytes.NewReader(dest.Bytes()))
	if !assert.NoError(t, err) {
		return
	}
	data, err := io.ReadAll(reader)
	assert.NoError(t, err)

	readings := decodeReadings(t, data)
	if assert.Len(t, readings, 20) {
		assert.Equal(t, math.Log(10), readings[18].datapoints["flow"])
		assert.EqualValues(t, 9, readings[19].datapoints["level"])
	}

	metrics := promext.DumpMetrics("", true, false, mfactory)
	assert.NotContains(t, metrics, `testmsgpackgz_output_written_chunks_total{output="msgpack"} 1`+"\n")
	assert.Contains(t, metrics, `testmsgpackgz_output_written_readings_total{output="msgpack"} 20`+"\n")
}

func TestYamlWriter(t *testing.T) {
	dest := &bufferCloser{}
	writer := NewYamlWriter(logger.Root(), dest, promreg.NewMetricFactory("testyaml_", nil, nil))
	writer.Write(nil, btest.MustParseReadings(testBatch))
	writer.Write(nil, base.ReadingSet{})
	writer.Write(nil, btest.MustParseReadings(`[{asset: sensorC, readings: {x: 1.0}}]`))
	assert.NoError(t, writer.Close())

	rr := input.NewReadingReaderFromString(logger.Root(), "yaml output", dest.String())
	readings, err := rr.NextBatch(10)
	if assert.NoError(t, err) {
		assert.Equal(t, []string{"sensorA", "sensorB", "sensorC"}, readings.AssetNames())
		assert.Equal(t, base.KindFloat, readings[0].GetDatapoint("temp").Value.Kind())
		assert.Equal(t, base.KindInteger, readings[0].GetDatapoint("count").Value.Kind())
		assert.Equal(t, base.KindFloat, readings[2].GetDatapoint("x").Value.Kind())
	}
}

func TestYamlWriterNothingWritten(t *testing.T) {
	mfactory := promreg.NewMetricFactory("testyamlempty_", nil, nil)
	{
		dest := &bufferCloser{}
		writer := NewYamlWriter(logger.Root(), dest, mfactory)
		writer.Write(nil, base.ReadingSet{})
		assert.NoError(t, writer.Close())
		assert.True(t, dest.closed)
		assert.Equal(t, 0, dest.Len())
	}
	{
		dest := &bufferCloser{}
		writer := NewYamlWriter(logger.Root(), dest, mfactory)
		assert.NoError(t, writer.Close())
		assert.True(t, dest.closed)
	}
}

func TestConfig(t *testing.T) {
	mfactory := promreg.NewMetricFactory("testoutputconfig_", nil, nil)

	assert.EqualError(t, (&Config{}).VerifyConfig(), ".type is unspecified")
	assert.EqualError(t, (&Config{Type: "fluentd"}).VerifyConfig(), ".type 'fluentd' is unsupported")
	assert.EqualError(t, (&Config{Type: TypeYaml, Gzip: true}).VerifyConfig(), ".gzip is unsupported by 'yaml' output")

	nullWriter, err := (&Config{Type: TypeNull}).NewWriter(logger.Root(), mfactory)
	assert.NoError(t, err)
	assert.IsType(t, &NullWriter{}, nullWriter)

	path := filepath.Join(t.TempDir(), "out.msgpack")
	writer, err := (&Config{Type: TypeMsgpack, Path: path}).NewWriter(logger.Root(), mfactory)
	if assert.NoError(t, err) {
		writer.Write(nil, btest.MustParseReadings(testBatch))
		assert.NoError(t, writer.Close())
		data, rerr := os.ReadFile(path)
		assert.NoError(t, rerr)
		assert.Len(t, decodeReadings(t, data), 2)
	}
}
