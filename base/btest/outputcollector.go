package btest

import (
	"sync"

	"github.com/relex/log-filter/base"
)

// OutputCall records one invocation of OutputStream
type OutputCall struct {
	Handle   base.OutputHandle
	Readings base.ReadingSet
}

// OutputCollector collects batches passed to its OutputStream, for testing
type OutputCollector struct {
	lock  sync.Mutex
	calls []OutputCall
}

// NewOutputCollector creates an OutputCollector and its OutputStream function
func NewOutputCollector() (*OutputCollector, base.OutputStream) {
	collector := &OutputCollector{}
	return collector, collector.accept
}

// Calls returns all recorded calls in order
func (c *OutputCollector) Calls() []OutputCall {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]OutputCall(nil), c.calls...)
}

// NumCalls returns the numbers of calls so far
func (c *OutputCollector) NumCalls() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.calls)
}

// Last returns the batch of the last call, or nil
func (c *OutputCollector) Last() base.ReadingSet {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1].Readings
}

func (c *OutputCollector) accept(handle base.OutputHandle, readings base.ReadingSet) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.calls = append(c.calls, OutputCall{Handle: handle, Readings: readings})
}
