package stats

import (
	"math"
	"testing"
	"time"
)

type manualTimer struct {
	now int64
	hz  int64
}

func (t *manualTimer) Now() int64 { return t.now }
func (t *manualTimer) Hz() int64  { return t.hz }

func nan() float64 { return math.NaN() }

func TestTicksToDuration(t *testing.T) {
	cases := []struct {
		desc       string
		hz         int64
		start, end int64
		want       time.Duration
	}{
		{desc: "nanosecond timer", hz: int64(time.Second), start: 10, end: 1510, want: 1500 * time.Nanosecond},
		{desc: "millisecond timer", hz: 1000, start: 0, end: 2500, want: 2500 * time.Millisecond},
		{desc: "slow timer", hz: 4, start: 2, end: 4, want: 500 * time.Millisecond},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			if got := TicksToDuration(c.hz, c.start, c.end); got != c.want {
				t.Errorf("TicksToDuration() failed - got %v want %v", got, c.want)
			}
		})
	}
}

func TestInterval(t *testing.T) {
	timer := &manualTimer{now: 100, hz: 10}
	iv := NewInterval(timer)
	if iv.Hz() != 10 {
		t.Errorf("incorrect hz: %d", iv.Hz())
	}
	timer.now = 130
	if got := iv.Finish(); got != 30 {
		t.Errorf("Finish() failed - got %d want 30", got)
	}
	timer.now = 125
	if got := iv.Finish(); got != 0 {
		t.Errorf("Finish() on a clock going back should clamp, got %d", got)
	}
	timer.now = 200
	iv.Start()
	timer.now = 201
	if got := iv.Finish(); got != 1 {
		t.Errorf("Finish() after Start() failed - got %d", got)
	}
}

func TestMonotonicTimer(t *testing.T) {
	timer := NewMonotonicTimer()
	a := timer.Now()
	b := timer.Now()
	if b < a {
		t.Errorf("monotonic timer went back: %d < %d", b, a)
	}
	if timer.Hz() != int64(time.Second) {
		t.Errorf("incorrect hz: %d", timer.Hz())
	}
}

func TestScaleTime(t *testing.T) {
	cases := []struct {
		ticks float64
		hz    int64
		want  float64
		unit  string
	}{
		{ticks: 1, hz: 1e9, want: 1, unit: "nanosecond"},
		{ticks: 999, hz: 1e9, want: 999, unit: "nanoseconds"},
		{ticks: 1500, hz: 1e9, want: 1.5, unit: "microseconds"},
		{ticks: 2, hz: 1, want: 2, unit: "seconds"},
		{ticks: 90, hz: 1, want: 1.5, unit: "minutes"},
		{ticks: 3600, hz: 1, want: 1, unit: "hour"},
		{ticks: 1000, hz: 1000, want: 1, unit: "second"},
	}
	for _, c := range cases {
		v, unit := scaleTime(c.ticks, c.hz)
		if v != c.want || unit != c.unit {
			t.Errorf("scaleTime(%v, %d) failed - got %v %s want %v %s", c.ticks, c.hz, v, unit, c.want, c.unit)
		}
	}
}
