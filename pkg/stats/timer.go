package stats

import "time"

// Timer is a monotonic tick source. Time statistics record samples in ticks
// of their timer and convert them to durations only for printing.
type Timer interface {
	// Now returns the current tick value.
	Now() int64
	// Hz returns the number of ticks per second.
	Hz() int64
}

// TicksToDuration converts the ticks elapsed between start and end of a timer
// running at hz into a time.Duration.
func TicksToDuration(hz, start, end int64) time.Duration {
	ticks := end - start
	if hz == int64(time.Second) {
		return time.Duration(ticks)
	}
	return time.Duration(float64(ticks) * float64(time.Second) / float64(hz))
}

// MonotonicTimer ticks in nanoseconds using the runtime's monotonic clock.
type MonotonicTimer struct {
	base time.Time
}

// NewMonotonicTimer returns a nanosecond timer starting at zero.
func NewMonotonicTimer() *MonotonicTimer {
	return &MonotonicTimer{base: time.Now()}
}

func (t *MonotonicTimer) Now() int64 {
	return int64(time.Since(t.base))
}

func (t *MonotonicTimer) Hz() int64 {
	return int64(time.Second)
}

// Interval measures consecutive spans of a Timer: each call to Finish returns
// the ticks since the previous mark and sets a new one.
type Interval struct {
	timer Timer
	mark  int64
}

// NewInterval returns an Interval started at the timer's current tick.
func NewInterval(timer Timer) *Interval {
	return &Interval{timer: timer, mark: timer.Now()}
}

// Start restarts the interval.
func (iv *Interval) Start() {
	iv.mark = iv.timer.Now()
}

// Finish returns the elapsed ticks and restarts the interval.
func (iv *Interval) Finish() int64 {
	now := iv.timer.Now()
	elapsed := now - iv.mark
	iv.mark = now
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Hz returns the frequency of the underlying timer.
func (iv *Interval) Hz() int64 {
	return iv.timer.Hz()
}
