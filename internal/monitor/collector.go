package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// OperationMetrics is a point-in-time view of one operation
type OperationMetrics struct {
	Operation    Operation     `json:"operation"`
	Count        int64         `json:"count"`
	SuccessCount int64         `json:"success_count"`
	ErrorCount   int64         `json:"error_count"`
	TotalTime    time.Duration `json:"total_time_ns"`
	MinTime      time.Duration `json:"min_time_ns"`
	MaxTime      time.Duration `json:"max_time_ns"`
	AvgTime      time.Duration `json:"avg_time_ns"`
	LastTime     time.Duration `json:"last_time_ns"`
}

// Snapshot holds every operation seen so far, sorted by name
type Snapshot struct {
	Timestamp  time.Time          `json:"timestamp"`
	Uptime     time.Duration      `json:"uptime_ns"`
	Operations []OperationMetrics `json:"operations"`
}

type tracked struct {
	timer  *Timer
	errors Counter
}

// Collector records the duration and outcome of tracked operations. It is
// safe for concurrent use.
type Collector struct {
	started time.Time
	now     func() time.Time

	mu  sync.RWMutex
	ops map[Operation]*tracked
}

func New() *Collector {
	return &Collector{
		started: time.Now(),
		now:     time.Now,
		ops:     make(map[Operation]*tracked),
	}
}

// Track runs fn and records how long it took and whether it failed. The
// error from fn is returned unchanged.
func (c *Collector) Track(op Operation, fn func() error) error {
	start := c.now()
	err := fn()
	c.Record(op, c.now().Sub(start), err)
	return err
}

// Record adds a measurement taken elsewhere
func (c *Collector) Record(op Operation, d time.Duration, err error) {
	t := c.get(op)
	t.timer.Record(d)
	if err != nil {
		t.errors.Inc()
	}
}

func (c *Collector) get(op Operation) *tracked {
	c.mu.RLock()
	t, ok := c.ops[op]
	c.mu.RUnlock()
	if ok {
		return t
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok = c.ops[op]; !ok {
		t = &tracked{timer: NewTimer()}
		c.ops[op] = t
	}
	return t
}

// Operation returns the metrics for op, zero if it was never tracked
func (c *Collector) Operation(op Operation) OperationMetrics {
	c.mu.RLock()
	t, ok := c.ops[op]
	c.mu.RUnlock()
	if !ok {
		return OperationMetrics{Operation: op}
	}
	return metricsOf(op, t)
}

func metricsOf(op Operation, t *tracked) OperationMetrics {
	count := t.timer.Count()
	errs := t.errors.Get()
	return OperationMetrics{
		Operation:    op,
		Count:        count,
		SuccessCount: count - errs,
		ErrorCount:   errs,
		TotalTime:    t.timer.TotalTime(),
		MinTime:      t.timer.MinTime(),
		MaxTime:      t.timer.MaxTime(),
		AvgTime:      t.timer.AvgTime(),
		LastTime:     t.timer.LastTime(),
	}
}

// Snapshot returns the current metrics of every tracked operation
func (c *Collector) Snapshot() Snapshot {
	now := c.now()

	c.mu.RLock()
	ops := make([]OperationMetrics, 0, len(c.ops))
	for op, t := range c.ops {
		ops = append(ops, metricsOf(op, t))
	}
	c.mu.RUnlock()

	sort.Slice(ops, func(i, j int) bool { return ops[i].Operation < ops[j].Operation })
	return Snapshot{Timestamp: now, Uptime: now.Sub(c.started), Operations: ops}
}

// Summary renders the snapshot as one line per operation
func (s Snapshot) Summary() string {
	if len(s.Operations) == 0 {
		return "no operations recorded"
	}

	var b strings.Builder
	for _, op := range s.Operations {
		fmt.Fprintf(&b, "%-13s %3d run(s), %d failed, avg %s, max %s\n",
			op.Operation, op.Count, op.ErrorCount,
			op.AvgTime.Round(time.Millisecond), op.MaxTime.Round(time.Millisecond))
	}
	return strings.TrimRight(b.String(), "\n")
}
