package test

import (
	"runtime"
	"syscall"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-filter/util"
)

// CostTracker measures CPU time and heap allocations of the current process
type CostTracker struct {
	start          time.Time
	startUser      time.Time
	startSystem    time.Time
	startNumAllocs uint64
}

// CostReport contains measurements since the tracker was created
type CostReport struct {
	RealTime      time.Duration
	UserTime      time.Duration
	SystemTime    time.Duration
	NumHeapAllocs uint64
	GCCPUFraction float64
}

// StartCostTracking creates a CostTracker starting from now
func StartCostTracking() *CostTracker {
	runtime.GC()
	user, system := readCPUTimes()
	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)
	return &CostTracker{
		start:          time.Now(),
		startUser:      user,
		startSystem:    system,
		startNumAllocs: memStats.Mallocs,
	}
}

// Report reports measurements since the tracker was started
func (ct *CostTracker) Report() CostReport {
	runtime.GC()
	realTime := time.Since(ct.start)
	user, system := readCPUTimes()
	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)
	return CostReport{
		RealTime:      realTime,
		UserTime:      user.Sub(ct.startUser),
		SystemTime:    system.Sub(ct.startSystem),
		NumHeapAllocs: memStats.Mallocs - ct.startNumAllocs,
		GCCPUFraction: memStats.GCCPUFraction,
	}
}

func readCPUTimes() (time.Time, time.Time) {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		logger.Panic("failed to get resource usage: ", err)
	}
	return util.TimeFromTimeval(rusage.Utime), util.TimeFromTimeval(rusage.Stime)
}
