package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// SyncStats accounts for best-effort cart mirror deliveries. Attempted
// counts calls that cleared the client-side throttle; the rest split into
// delivered and failed.
type SyncStats struct {
	Attempted Counter
	Delivered Counter
	Failed    Counter
}

func (s *SyncStats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"attempted": s.Attempted.Load(),
		"delivered": s.Delivered.Load(),
		"failed":    s.Failed.Load(),
	}
}
