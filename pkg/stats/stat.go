package stats

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/atomic"
)

const (
	// defaultHz is the tick rate assumed for time statistics without a timer.
	defaultHz = int64(time.Second)
	// histogramSpan bounds the durations a time histogram resolves exactly;
	// longer samples are recorded as the span.
	histogramSpan = time.Hour
	histogramSigFigs = 3
)

// Statistic is the capability set shared by every named statistic, whether a
// single instance or a hierarchy of them.
type Statistic interface {
	Name() string
	Kind() Kind
	// Record adds an integer sample (or adds to a counter).
	Record(v int64)
	// RecordFloat adds a float sample.
	RecordFloat(x float64)
	// RecordTime adds a duration sample measured in timer ticks.
	RecordTime(ticks int64)
	Summary() Summary
	Clear()
	// Print writes the summary under the given title, or under the
	// statistic's name when title is empty.
	Print(w io.Writer, title string) error
	// Share makes the statistic safe for concurrent use. It must be called
	// before the statistic is published to other goroutines.
	Share()
}

// Units labels printed integer and float values.
type Units struct {
	Singular string
	Plural   string
}

func (u Units) label(plural bool) string {
	if plural {
		return u.Plural
	}
	return u.Singular
}

// Options configure a statistic instance.
type Options struct {
	Name string
	Kind Kind
	// WindowSize is the number of samples kept by window kinds.
	WindowSize int
	// Hz is the tick rate of time samples, nanoseconds when zero.
	Hz    int64
	Units Units
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// Stat is a named statistic backed by one of a running accumulator, a window
// or an event counter, depending on its kind.
type Stat struct {
	name  string
	kind  Kind
	hz    int64
	units Units

	mu      sync.Locker
	moments *Moments
	window  *Window
	counter *atomic.Int64
	hist    *hdrhistogram.Histogram

	// every sample ever recorded, including those a window has evicted
	logHist   *LogHistogram
	floatHist *FloatHistogram
}

var _ Statistic = (*Stat)(nil)

// New returns a statistic configured by opts.
func New(opts Options) (*Stat, error) {
	if opts.Kind < RunningInteger || opts.Kind > EventCounter {
		return nil, invalidf("kind %d for %q", opts.Kind, opts.Name)
	}
	if opts.Hz < 0 {
		return nil, invalidf("hz %d for %q", opts.Hz, opts.Name)
	}
	s := &Stat{
		name:  opts.Name,
		kind:  opts.Kind,
		hz:    opts.Hz,
		units: opts.Units,
		mu:    noLock{},
	}
	if s.hz == 0 {
		s.hz = defaultHz
	}
	integer := opts.Kind.DataType() != Float
	switch {
	case opts.Kind == EventCounter:
		s.counter = atomic.NewInt64(0)
	case opts.Kind.IsWindow():
		w, err := NewWindow(opts.WindowSize, integer)
		if err != nil {
			return nil, invalidf("window size %d for %q", opts.WindowSize, opts.Name)
		}
		s.window = w
	default:
		s.moments = NewMoments(integer)
		if opts.Kind == RunningTime {
			s.hist = newHistogram(s.hz)
		}
	}
	switch {
	case s.counter != nil:
	case integer:
		s.logHist = &LogHistogram{}
	default:
		s.floatHist = &FloatHistogram{}
	}
	return s, nil
}

// NewRunning returns a running statistic of the given data type.
func NewRunning(name string, d DataType) *Stat {
	s, err := New(Options{Name: name, Kind: RunningKind(d)})
	if err != nil {
		panic(err)
	}
	return s
}

// NewWindowed returns a statistic over the last size samples.
func NewWindowed(name string, d DataType, size int) (*Stat, error) {
	return New(Options{Name: name, Kind: WindowKind(d), WindowSize: size})
}

// NewCounter returns an event counter.
func NewCounter(name string) *Stat {
	s, err := New(Options{Name: name, Kind: EventCounter})
	if err != nil {
		panic(err)
	}
	return s
}

func newHistogram(hz int64) *hdrhistogram.Histogram {
	highest := int64(float64(hz) * histogramSpan.Seconds())
	if highest < 2 {
		highest = 2
	}
	return hdrhistogram.New(1, highest, histogramSigFigs)
}

// absorb folds the samples of o into the running statistic s.
func (s *Stat) absorb(o *Stat) {
	sum := o.Summary()
	o.mu.Lock()
	defer o.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moments.Merge(sum)
	if s.hist != nil && o.hist != nil {
		s.hist.Merge(o.hist)
	}
	if s.logHist != nil && o.logHist != nil {
		s.logHist.Merge(o.logHist)
	}
	if s.floatHist != nil && o.floatHist != nil {
		s.floatHist.Merge(o.floatHist)
	}
}

func (s *Stat) Name() string { return s.name }

func (s *Stat) Kind() Kind { return s.kind }

// Hz returns the tick rate of time samples.
func (s *Stat) Hz() int64 { return s.hz }

// Units returns the print labels.
func (s *Stat) Units() Units { return s.units }

// SetUnits changes the print labels.
func (s *Stat) SetUnits(u Units) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = u
}

// Share switches the statistic to per-instance locking.
func (s *Stat) Share() {
	if _, ok := s.mu.(noLock); ok {
		s.mu = &sync.Mutex{}
	}
}

// Shared reports whether the statistic locks its operations.
func (s *Stat) Shared() bool {
	_, ok := s.mu.(noLock)
	return !ok
}

// Record adds an integer sample. Counters add v when it is not negative.
func (s *Stat) Record(v int64) {
	if s.counter != nil {
		if v > 0 {
			s.counter.Add(v)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind.DataType() == Float {
		s.recordFloat(float64(v))
		return
	}
	s.recordInt(v)
}

// RecordFloat adds a float sample. Integer and time kinds truncate it and
// drop NaNs and infinities.
func (s *Stat) RecordFloat(x float64) {
	if s.counter != nil {
		if x >= 1 {
			s.counter.Add(int64(x))
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind.DataType() == Float {
		s.recordFloat(x)
		return
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}
	s.recordInt(int64(x))
}

// RecordTime adds a sample measured in ticks.
func (s *Stat) RecordTime(ticks int64) {
	s.Record(ticks)
}

// RecordInterval records the ticks elapsed on iv since its last mark.
func (s *Stat) RecordInterval(iv *Interval) {
	s.RecordTime(iv.Finish())
}

// Increment adds one event to a counter. Other kinds ignore it.
func (s *Stat) Increment() {
	if s.counter != nil {
		s.counter.Inc()
	}
}

func (s *Stat) recordInt(v int64) {
	s.logHist.Record(v)
	if s.window != nil {
		s.window.RecordInt(v)
		return
	}
	s.moments.RecordInt(v)
	if s.hist != nil {
		s.recordHistogram(v)
	}
}

func (s *Stat) recordFloat(x float64) {
	s.floatHist.Record(x)
	if s.window != nil {
		s.window.Record(x)
		return
	}
	s.moments.Record(x)
}

func (s *Stat) recordHistogram(v int64) {
	if v < 0 {
		v = 0
	}
	if max := s.hist.HighestTrackableValue(); v > max {
		v = max
	}
	// in range after clamping
	_ = s.hist.RecordValue(v)
}

// Count returns the number of recorded samples, or the counter value.
func (s *Stat) Count() uint64 {
	return s.Summary().Count
}

// Summary returns the moments of the statistic. Counters report only their
// count.
func (s *Stat) Summary() Summary {
	if s.counter != nil {
		return Summary{Count: uint64(s.counter.Load()), Integer: true}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window != nil {
		return s.window.Summary()
	}
	return s.moments.Summary()
}

// Percentile returns the q-th percentile (0 to 100) of a running time
// statistic, in ticks.
func (s *Stat) Percentile(q float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hist == nil {
		return 0, invalidf("%q keeps no histogram", s.name)
	}
	if s.hist.TotalCount() == 0 {
		return 0, ErrInsufficientData
	}
	return s.hist.ValueAtQuantile(q), nil
}

// LogHistogram returns a copy of the pseudo-log histogram of an integer or
// time statistic, or nil for other kinds. Window kinds count every sample
// recorded since the last clear, not only the ones in the window.
func (s *Stat) LogHistogram() *LogHistogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logHist == nil {
		return nil
	}
	h := *s.logHist
	return &h
}

// FloatHistogram returns a copy of the exponent histogram of a float
// statistic, or nil for other kinds.
func (s *Stat) FloatHistogram() *FloatHistogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.floatHist == nil {
		return nil
	}
	h := *s.floatHist
	return &h
}

// Clear drops all recorded samples.
func (s *Stat) Clear() {
	if s.counter != nil {
		s.counter.Store(0)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logHist != nil {
		s.logHist.Clear()
	}
	if s.floatHist != nil {
		s.floatHist.Clear()
	}
	if s.window != nil {
		s.window.Clear()
		return
	}
	s.moments.Clear()
	if s.hist != nil {
		s.hist.Reset()
	}
}

// Print writes the summary to w.
func (s *Stat) Print(w io.Writer, title string) error {
	if title == "" {
		title = s.name
	}
	sum := s.Summary()
	p := newPrinter(w, title)
	switch {
	case s.counter != nil:
		p.integer("Count", int64(sum.Count), s.units)
	case s.kind.DataType() == Time:
		hist := s.LogHistogram()
		p.times(sum, hist, s.hz)
		s.printPercentiles(p)
		if sum.Count > 0 {
			p.logHistogram(hist)
		}
	case s.kind.DataType() == Float:
		hist := s.FloatHistogram()
		p.floats(sum, hist, s.units)
		if sum.Count > 0 {
			p.floatHistogram(hist)
		}
	default:
		hist := s.LogHistogram()
		p.integers(sum, hist, s.units)
		if sum.Count > 0 {
			p.logHistogram(hist)
		}
	}
	return p.err
}

func (s *Stat) printPercentiles(p *printer) {
	for _, q := range []float64{50, 90, 99} {
		v, err := s.Percentile(q)
		if err != nil {
			return
		}
		p.time(percentileLabel(q), float64(v), s.hz)
	}
}
