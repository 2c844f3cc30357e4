package stats

import (
	"fmt"
	"io"
	"sync"
)

// Dimension configures one level of a hierarchy.
type Dimension struct {
	// Period is the number of retired instances folded into one instance
	// of the next level. On the last level of a fixed hierarchy it is the
	// number of instances kept; older ones are dropped.
	Period int `mapstructure:"period" yaml:"period"`
	// Retain is how many already combined instances stay queryable on the
	// level. Zero releases them as soon as they are combined.
	Retain int `mapstructure:"retain" yaml:"retain"`
}

// HierConfig configures a Hier.
type HierConfig struct {
	Name     string
	DataType DataType
	// GroupSize is the period of every level when Levels is empty. Levels
	// are then added on demand without limit.
	GroupSize int
	// Levels fixes the number of levels and their dimensions.
	Levels []Dimension
	// AutoAdvance retires the live instance after this many recorded
	// samples. Zero leaves advancing to the caller.
	AutoAdvance int64
	Hz          int64
	Units       Units
}

// Validate checks the configuration.
func (c *HierConfig) Validate() error {
	if c.AutoAdvance < 0 {
		return invalidf("auto advance %d for %q", c.AutoAdvance, c.Name)
	}
	if c.Hz < 0 {
		return invalidf("hz %d for %q", c.Hz, c.Name)
	}
	if len(c.Levels) == 0 {
		if c.GroupSize < 2 {
			return invalidf("group size %d for %q", c.GroupSize, c.Name)
		}
		return nil
	}
	for i, d := range c.Levels {
		if d.Retain < 0 {
			return invalidf("level %d retain %d for %q", i, d.Retain, c.Name)
		}
		if i == len(c.Levels)-1 {
			if d.Period < 1 {
				return invalidf("last level period %d for %q", d.Period, c.Name)
			}
			continue
		}
		if d.Period < 2 {
			return invalidf("level %d period %d for %q", i, d.Period, c.Name)
		}
	}
	return nil
}

type hierLevel struct {
	dim Dimension
	// instances already folded into the next level, oldest first
	combined []*Stat
	// retired instances not yet folded, oldest first
	pending []*Stat
	last    bool
}

// Hier folds finished instances of a running statistic into coarser ones.
// Samples go to a live instance; Advance retires it into level 0. Whenever a
// level collects Period retired instances they are merged into a single
// instance on the next level, so memory stays bounded by the sum of the
// level sizes however long the process runs.
type Hier struct {
	mu     sync.Locker
	shared bool
	cfg    HierConfig
	kind   Kind

	current  *Stat
	levels   []*hierLevel
	events   int64
	advances int64
}

var _ Statistic = (*Hier)(nil)

// NewHier returns an empty hierarchy.
func NewHier(cfg HierConfig) (*Hier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Levels = append([]Dimension(nil), cfg.Levels...)
	if cfg.Hz == 0 {
		cfg.Hz = defaultHz
	}
	h := &Hier{
		mu:   noLock{},
		cfg:  cfg,
		kind: RunningKind(cfg.DataType),
	}
	h.reset()
	return h, nil
}

func (h *Hier) reset() {
	h.events = 0
	h.advances = 0
	h.levels = h.levels[:0]
	if len(h.cfg.Levels) == 0 {
		h.addLevel()
	} else {
		for i, d := range h.cfg.Levels {
			h.levels = append(h.levels, &hierLevel{dim: d, last: i == len(h.cfg.Levels)-1})
		}
	}
	h.current = h.newMember()
}

func (h *Hier) addLevel() {
	h.levels = append(h.levels, &hierLevel{dim: Dimension{Period: h.cfg.GroupSize}})
}

func (h *Hier) newMember() *Stat {
	s, err := New(Options{Name: h.cfg.Name, Kind: h.kind, Hz: h.cfg.Hz, Units: h.cfg.Units})
	if err != nil {
		panic(fmt.Sprintf("hier %q: live instance: %v", h.cfg.Name, err))
	}
	if h.shared {
		s.Share()
	}
	return s
}

func (h *Hier) Name() string { return h.cfg.Name }

func (h *Hier) Kind() Kind { return h.kind }

// Share switches the hierarchy to locking its operations.
func (h *Hier) Share() {
	if h.shared {
		return
	}
	h.shared = true
	h.mu = &sync.Mutex{}
	h.current.Share()
	for _, lv := range h.levels {
		for _, s := range lv.combined {
			s.Share()
		}
		for _, s := range lv.pending {
			s.Share()
		}
	}
}

func (h *Hier) beforeRecord() {
	if h.cfg.AutoAdvance > 0 && h.events > 0 && h.events%h.cfg.AutoAdvance == 0 {
		h.advance()
	}
	h.events++
}

func (h *Hier) Record(v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeRecord()
	h.current.Record(v)
}

func (h *Hier) RecordFloat(x float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeRecord()
	h.current.RecordFloat(x)
}

func (h *Hier) RecordTime(ticks int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeRecord()
	h.current.RecordTime(ticks)
}

// RecordInterval records the ticks elapsed on iv since its last mark.
func (h *Hier) RecordInterval(iv *Interval) {
	h.RecordTime(iv.Finish())
}

// Advance retires the live instance and starts a new one.
func (h *Hier) Advance() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.advance()
}

func (h *Hier) advance() {
	h.advances++
	retired := h.current
	h.current = h.newMember()

	for k := 0; retired != nil; k++ {
		if k == len(h.levels) {
			// only reachable without fixed levels
			h.addLevel()
		}
		retired = h.levels[k].push(retired, h.combine)
	}
}

// push adds a retired instance to the level and returns the combined
// instance for the next level, if the level reached its period.
func (lv *hierLevel) push(s *Stat, combine func([]*Stat) *Stat) *Stat {
	lv.pending = append(lv.pending, s)
	if lv.last {
		if n := len(lv.pending) - lv.dim.Period; n > 0 {
			lv.pending = append(lv.pending[:0], lv.pending[n:]...)
		}
		return nil
	}
	if len(lv.pending) < lv.dim.Period {
		return nil
	}
	merged := combine(lv.pending)
	if lv.dim.Retain > 0 {
		lv.combined = append(lv.combined, lv.pending...)
		if n := len(lv.combined) - lv.dim.Retain; n > 0 {
			lv.combined = append(lv.combined[:0], lv.combined[n:]...)
		}
	}
	lv.pending = nil
	return merged
}

func (h *Hier) combine(group []*Stat) *Stat {
	merged := h.newMember()
	for _, s := range group {
		merged.absorb(s)
	}
	return merged
}

// Current returns the live instance. Record through the Hier: the live
// instance is replaced on every advance.
func (h *Hier) Current() *Stat {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Levels returns the number of levels currently in use.
func (h *Hier) Levels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.levels)
}

// Level returns the instances held on level k, oldest first: the retained
// combined ones followed by the pending ones. It is nil for unknown levels.
func (h *Hier) Level(k int) []*Stat {
	h.mu.Lock()
	defer h.mu.Unlock()
	if k < 0 || k >= len(h.levels) {
		return nil
	}
	lv := h.levels[k]
	out := make([]*Stat, 0, len(lv.combined)+len(lv.pending))
	out = append(out, lv.combined...)
	return append(out, lv.pending...)
}

// Pending returns the number of retired instances on level k still waiting
// to be combined.
func (h *Hier) Pending(k int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if k < 0 || k >= len(h.levels) {
		return 0
	}
	return len(h.levels[k].pending)
}

// Advances returns the number of retired live instances since the last
// clear.
func (h *Hier) Advances() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.advances
}

// Summary returns the summary of the live instance.
func (h *Hier) Summary() Summary {
	return h.Current().Summary()
}

// Total returns the summary of every sample recorded since the last clear,
// except those dropped from the last level of a fixed hierarchy.
func (h *Hier) Total() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()
	sum := h.current.Summary()
	for _, lv := range h.levels {
		for _, s := range lv.pending {
			sum = Merge(sum, s.Summary())
		}
	}
	return sum
}

// Clear drops every level and starts a new live instance.
func (h *Hier) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset()
}

// Print writes the summary of the live instance.
func (h *Hier) Print(w io.Writer, title string) error {
	if title == "" {
		title = h.cfg.Name
	}
	return h.Current().Print(w, title)
}

// PrintAll writes the live instance and then every instance held on each
// level, titled title[level][index].
func (h *Hier) PrintAll(w io.Writer, title string) error {
	if title == "" {
		title = h.cfg.Name
	}
	if err := h.Print(w, title); err != nil {
		return err
	}
	for k := 0; k < h.Levels(); k++ {
		for i, s := range h.Level(k) {
			if err := s.Print(w, fmt.Sprintf("%s[%d][%d]", title, k, i)); err != nil {
				return err
			}
		}
	}
	return nil
}
