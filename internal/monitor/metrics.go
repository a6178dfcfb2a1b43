// Package monitor keeps in-process timing for the operations a session
// performs against the analysis service
package monitor

import (
	"sync/atomic"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Operation names a tracked kind of work
type Operation string

const (
	OpLoad        Operation = "load"
	OpAnalyze     Operation = "analyze"
	OpRender      Operation = "render"
	OpHealthCheck Operation = "health_check"
)

// Counter is a thread-safe counter
type Counter struct {
	value int64
}

func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.value)
}

// Timer is a thread-safe duration aggregate
type Timer struct {
	count     int64
	totalTime int64
	minTime   int64
	maxTime   int64
	lastTime  int64
}

// NewTimer creates an empty timer
func NewTimer() *Timer {
	return &Timer{minTime: maxInt64}
}

// Record adds one measurement
func (t *Timer) Record(d time.Duration) {
	nanos := d.Nanoseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTime, nanos)
	atomic.StoreInt64(&t.lastTime, nanos)

	for {
		current := atomic.LoadInt64(&t.minTime)
		if nanos >= current || atomic.CompareAndSwapInt64(&t.minTime, current, nanos) {
			break
		}
	}
	for {
		current := atomic.LoadInt64(&t.maxTime)
		if nanos <= current || atomic.CompareAndSwapInt64(&t.maxTime, current, nanos) {
			break
		}
	}
}

func (t *Timer) Count() int64 {
	return atomic.LoadInt64(&t.count)
}

func (t *Timer) TotalTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.totalTime))
}

// MinTime is zero until something is recorded
func (t *Timer) MinTime() time.Duration {
	v := atomic.LoadInt64(&t.minTime)
	if v == maxInt64 {
		return 0
	}
	return time.Duration(v)
}

func (t *Timer) MaxTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.maxTime))
}

func (t *Timer) LastTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&t.lastTime))
}

func (t *Timer) AvgTime() time.Duration {
	count := atomic.LoadInt64(&t.count)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&t.totalTime) / count)
}
