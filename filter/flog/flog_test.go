package flog

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/log-filter/base"
	"github.com/relex/log-filter/base/bconfig"
	"github.com/relex/log-filter/base/btest"
	"github.com/stretchr/testify/assert"
)

type testEnv struct {
	filter    *Filter
	collector *btest.OutputCollector
	tracker   *btest.StubAssetTracker
	metrics   func() string // dumps metrics
}

func newTestEnv(t *testing.T, prefix string, config string) *testEnv {
	category, err := bconfig.ParseConfigCategory("log", config)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	collector, output := btest.NewOutputCollector()
	tracker := btest.NewStubAssetTracker()
	mfactory := promreg.NewMetricFactory(prefix, nil, nil)
	f, err := NewFilter("log", category, "next", output, tracker, logger.WithField("test", t.Name()), mfactory)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return &testEnv{filter: f, collector: collector, tracker: tracker, metrics: func() string { return promext.DumpMetrics("", true, false, mfactory) }}
}

func TestLogFilterAllAssets(t *testing.T) {
	env := newTestEnv(t, "testflog_all_", `{"enable": true, "match": ""}`)
	readings := btest.MustParseReadings(`
- asset: sensorA
  readings:
    temp: 100
`)
	env.filter.Ingest(readings)

	if assert.Equal(t, 1, env.collector.NumCalls()) {
		call := env.collector.Calls()[0]
		assert.Equal(t, "next", call.Handle)
		assert.Equal(t, []string{"sensorA"}, call.Readings.AssetNames())
		v := call.Readings[0].GetDatapoint("temp").Value
		assert.Equal(t, base.KindFloat, v.Kind())
		assert.InDelta(t, 4.605170185988092, v.Float(), 1e-12)
	}
	assert.Equal(t, []btest.TrackingTuple{{Service: "log", Asset: "sensorA", Event: "Filter"}}, env.tracker.Tuples())
}

func TestLogFilterMatch(t *testing.T) {
	env := newTestEnv(t, "testflog_match_", `{"enable": "true", "match": "^sensorA$"}`)
	readings := btest.MustParseReadings(`
- asset: sensorA
  readings: {x: 10}
- asset: sensorB
  readings: {x: 10}
`)
	env.filter.Ingest(readings)

	out := env.collector.Last()
	if assert.Equal(t, 2, out.Len()) {
		assert.Same(t, readings[0], out[0])
		assert.Same(t, readings[1], out[1])
		a := out[0].GetDatapoint("x").Value
		assert.Equal(t, base.KindFloat, a.Kind())
		assert.InDelta(t, math.Log(10), a.Float(), 1e-12)
		b := out[1].GetDatapoint("x").Value
		assert.Equal(t, base.KindInteger, b.Kind())
		assert.Equal(t, int64(10), b.Int())
	}
	assert.Equal(t, []string{"sensorA"}, env.tracker.Assets())
}

func TestLogFilterFullStringMatch(t *testing.T) {
	env := newTestEnv(t, "testflog_fullmatch_", `{"enable": "true", "match": "sensor"}`)
	readings := btest.MustParseReadings(`
- {asset: sensor, readings: {v: 1.5}}
- {asset: sensorX, readings: {v: 1.5}}
- {asset: my-sensor, readings: {v: 1.5}}
`)
	env.filter.Ingest(readings)
	assert.InDelta(t, math.Log(1.5), readings[0].Datapoints[0].Value.Float(), 1e-12)
	assert.Equal(t, 1.5, readings[1].Datapoints[0].Value.Float())
	assert.Equal(t, 1.5, readings[2].Datapoints[0].Value.Float())
	assert.Equal(t, []string{"sensor"}, env.tracker.Assets())
}

func TestLogFilterValueKinds(t *testing.T) {
	env := newTestEnv(t, "testflog_kinds_", `{"enable": "true"}`)
	readings := btest.MustParseReadings(`
- asset: pump
  readings:
    zeroInt: 0
    zeroFloat: 0.0
    int: 1
    float: 2.718281828459045
    negative: -3
    text: hello
    array: [1.0, 2.0]
    nested:
      inner: 10
`)
	env.filter.Ingest(readings)

	r := readings[0]
	{
		v := r.GetDatapoint("zeroInt").Value
		assert.Equal(t, base.KindInteger, v.Kind())
		assert.Equal(t, int64(0), v.Int())
	}
	{
		v := r.GetDatapoint("zeroFloat").Value
		assert.Equal(t, base.KindFloat, v.Kind())
		assert.Equal(t, 0.0, v.Float())
	}
	{
		v := r.GetDatapoint("int").Value
		assert.Equal(t, base.KindFloat, v.Kind())
		assert.Equal(t, 0.0, v.Float())
	}
	{
		v := r.GetDatapoint("float").Value
		assert.Equal(t, base.KindFloat, v.Kind())
		assert.InDelta(t, 1.0, v.Float(), 1e-12)
	}
	{
		v := r.GetDatapoint("negative").Value
		assert.Equal(t, base.KindFloat, v.Kind())
		assert.True(t, math.IsNaN(v.Float()))
	}
	{
		v := r.GetDatapoint("text").Value
		assert.Equal(t, base.KindString, v.Kind())
		assert.Equal(t, "hello", v.Str())
	}
	{
		v := r.GetDatapoint("array").Value
		assert.Equal(t, base.KindFloatArray, v.Kind())
		assert.Equal(t, []float64{1.0, 2.0}, v.FloatArray())
	}
	{
		v := r.GetDatapoint("nested").Value
		if assert.Equal(t, base.KindObject, v.Kind()) {
			inner := v.Object()[0].Value
			assert.Equal(t, base.KindInteger, inner.Kind())
			assert.Equal(t, int64(10), inner.Int())
		}
	}

	assert.Contains(t, env.metrics(), "testflog_kinds_filter_rescaled_datapoints_total 3\n")
	assert.Contains(t, env.metrics(), "testflog_kinds_filter_skipped_zero_datapoints_total 2\n")
}

func TestLogFilterDisabled(t *testing.T) {
	env := newTestEnv(t, "testflog_disabled_", `
plugin:
  description: Log filter plugin
  type: string
  default: log
  readonly: "true"
enable:
  description: A switch that can be used to enable or disable execution of the log filter.
  type: boolean
  default: "false"
match:
  type: string
  default: ""
`)
	assert.False(t, env.filter.IsEnabled())
	readings := btest.MustParseReadings(`[{asset: a, readings: {x: 10, y: 2.5}}]`)
	env.filter.Ingest(readings)
	assert.Equal(t, 1, env.collector.NumCalls())
	assert.Equal(t, int64(10), readings[0].Datapoints[0].Value.Int())
	assert.Equal(t, 2.5, readings[0].Datapoints[1].Value.Float())
	assert.Empty(t, env.tracker.Tuples())

	env.filter.SetEnabled(true)
	env.filter.Ingest(readings)
	assert.Equal(t, 2, env.collector.NumCalls())
	assert.InDelta(t, math.Log(10), readings[0].Datapoints[0].Value.Float(), 1e-12)

	assert.NoError(t, env.filter.Reconfigure(`{"enable": "false"}`))
	assert.False(t, env.filter.IsEnabled())
	readings2 := btest.MustParseReadings(`[{asset: a, readings: {x: 10}}]`)
	env.filter.Ingest(readings2)
	assert.Equal(t, int64(10), readings2[0].Datapoints[0].Value.Int())
}

func TestLogFilterEnabledQuery(t *testing.T) {
	env := newTestEnv(t, "testflog_query_", `{"enable": "true"}`)
	hostEnabled := false
	env.filter.SetEnabledQuery(func() bool { return hostEnabled })

	readings := btest.MustParseReadings(`[{asset: a, readings: {x: 10}}]`)
	env.filter.Ingest(readings)
	assert.Equal(t, int64(10), readings[0].Datapoints[0].Value.Int())

	hostEnabled = true
	env.filter.Ingest(readings)
	assert.Equal(t, base.KindFloat, readings[0].Datapoints[0].Value.Kind())

	env.filter.SetEnabledQuery(nil)
	assert.True(t, env.filter.IsEnabled())
}

func TestLogFilterConcurrentEnabledQuery(t *testing.T) {
	env := newTestEnv(t, "testflog_concurrent_query_", `{"enable": "false"}`)
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			env.filter.SetEnabledQuery(func() bool { return true })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			env.filter.IsEnabled()
		}
	}()
	wg.Wait()
	assert.True(t, env.filter.IsEnabled())
}

func TestLogFilterEmptyBatch(t *testing.T) {
	env := newTestEnv(t, "testflog_empty_", `{"enable": "true"}`)
	env.filter.Ingest(base.ReadingSet{})
	env.filter.Ingest(nil)
	assert.Equal(t, 2, env.collector.NumCalls())
	assert.Empty(t, env.tracker.Tuples())
}

func TestLogFilterReconfigure(t *testing.T) {
	env := newTestEnv(t, "testflog_reconf_", `{"enable": "true", "match": "sensorA"}`)

	assert.NoError(t, env.filter.Reconfigure(`{"enable": "true", "match": "sensorB"}`))
	assert.Equal(t, "sensorB", env.filter.GetConfig().Match)
	readings := btest.MustParseReadings(`[{asset: sensorA, readings: {x: 10}}, {asset: sensorB, readings: {x: 10}}]`)
	env.filter.Ingest(readings)
	assert.Equal(t, base.KindInteger, readings[0].Datapoints[0].Value.Kind())
	assert.Equal(t, base.KindFloat, readings[1].Datapoints[0].Value.Kind())

	// clearing match makes all readings eligible
	assert.NoError(t, env.filter.Reconfigure(`{"enable": "true", "match": ""}`))
	readings2 := btest.MustParseReadings(`[{asset: sensorA, readings: {x: 10}}, {asset: other, readings: {x: 10}}]`)
	env.filter.Ingest(readings2)
	assert.Equal(t, base.KindFloat, readings2[0].Datapoints[0].Value.Kind())
	assert.Equal(t, base.KindFloat, readings2[1].Datapoints[0].Value.Kind())
}

func TestLogFilterReconfigureInvalidPattern(t *testing.T) {
	env := newTestEnv(t, "testflog_invalid_", `{"enable": "true", "match": "^sensorA$"}`)

	err := env.filter.Reconfigure(`{"enable": "true", "match": "sensor(A"}`)
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Contains(t, err.Error(), "missing closing )")
	}
	assert.Equal(t, "^sensorA$", env.filter.GetConfig().Match)

	readings := btest.MustParseReadings(`[{asset: sensorA, readings: {x: 10}}, {asset: sensorB, readings: {x: 10}}]`)
	env.filter.Ingest(readings)
	assert.InDelta(t, math.Log(10), readings[0].Datapoints[0].Value.Float(), 1e-12)
	assert.Equal(t, int64(10), readings[1].Datapoints[0].Value.Int())

	assert.Contains(t, env.metrics(), "testflog_invalid_filter_failed_reconfigurations_total 1\n")
}

func TestLogFilterReconfigureInvalidDocument(t *testing.T) {
	env := newTestEnv(t, "testflog_invaliddoc_", `{"enable": "true"}`)
	err := env.filter.Reconfigure(`{"enable": `)
	assert.True(t, errors.Is(err, ErrConfiguration))
	err = env.filter.Reconfigure(`{"enable": "maybe"}`)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.True(t, env.filter.IsEnabled())
}

func TestLogFilterInitInvalidPattern(t *testing.T) {
	category, err := bconfig.ParseConfigCategory("log", `{"enable": "true", "match": "(("}`)
	assert.NoError(t, err)
	_, output := btest.NewOutputCollector()
	_, err = NewFilter("log", category, nil, output, nil, logger.Root(), promreg.NewMetricFactory("testflog_init_", nil, nil))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestLogFilterInitInvalidMatchType(t *testing.T) {
	category, err := bconfig.ParseConfigCategory("log", `{"enable": "true", "match": "a", "matchType": "wildcard"}`)
	assert.NoError(t, err)
	_, output := btest.NewOutputCollector()
	_, err = NewFilter("log", category, nil, output, nil, logger.Root(), promreg.NewMetricFactory("testflog_init_type_", nil, nil))
	if assert.True(t, errors.Is(err, ErrConfiguration)) {
		assert.EqualError(t, err, "invalid configuration: .matchType: unsupported match type 'wildcard'")
	}
}

func TestLogFilterGlob(t *testing.T) {
	env := newTestEnv(t, "testflog_glob_", `{"enable": "true", "match": "pump-*", "matchType": "glob"}`)
	readings := btest.MustParseReadings(`[{asset: pump-1, readings: {x: 1.0}}, {asset: motor-1, readings: {x: 1.0}}]`)
	env.filter.Ingest(readings)
	assert.Equal(t, 0.0, readings[0].Datapoints[0].Value.Float())
	assert.Equal(t, 1.0, readings[1].Datapoints[0].Value.Float())
}

func TestLogFilterShutdown(t *testing.T) {
	env := newTestEnv(t, "testflog_shutdown_", `{"enable": "true"}`)
	env.filter.Shutdown()
	env.filter.Shutdown()
	readings := btest.MustParseReadings(`[{asset: a, readings: {x: 10}}]`)
	env.filter.Ingest(readings)
	assert.Equal(t, 1, env.collector.NumCalls())
	assert.Equal(t, int64(10), readings[0].Datapoints[0].Value.Int())
}

func TestLogFilterConcurrentReconfigure(t *testing.T) {
	env := newTestEnv(t, "testflog_concurrent_", `{"enable": "true", "match": "a"}`)
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			readings := btest.MustParseReadings(`[{asset: a, readings: {x: 10}}, {asset: b, readings: {x: 10}}]`)
			env.filter.Ingest(readings)
			// each batch sees exactly one matcher: either "a" or "b" is transformed, never both or none
			numFloat := 0
			for _, r := range readings {
				if r.Datapoints[0].Value.Kind() == base.KindFloat {
					numFloat++
				}
			}
			assert.Equal(t, 1, numFloat)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				assert.NoError(t, env.filter.Reconfigure(`{"enable": "true", "match": "b"}`))
			} else {
				assert.NoError(t, env.filter.Reconfigure(`{"enable": "true", "match": "a"}`))
			}
		}
	}()
	wg.Wait()
	assert.Equal(t, 200, env.collector.NumCalls())
}
