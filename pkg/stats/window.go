package stats

// Window keeps the most recent samples in a ring buffer of fixed capacity.
// Summaries are recomputed from the buffer on demand because eviction
// invalidates incremental variance tracking.
type Window struct {
	integer bool
	buf     []sample
	next    int
	size    int
}

type sample struct {
	f float64
	i int64
}

// NewWindow returns an empty window holding at most size samples.
func NewWindow(size int, integer bool) (*Window, error) {
	if size <= 0 {
		return nil, invalidf("window size %d", size)
	}
	return &Window{
		integer: integer,
		buf:     make([]sample, 0, size),
		size:    size,
	}, nil
}

// Record adds a float sample, evicting the oldest one when full.
func (w *Window) Record(x float64) {
	w.push(sample{f: x, i: int64(x)})
}

// RecordInt adds an integer sample, evicting the oldest one when full.
func (w *Window) RecordInt(v int64) {
	w.push(sample{f: float64(v), i: v})
}

func (w *Window) push(s sample) {
	if len(w.buf) < w.size {
		w.buf = append(w.buf, s)
	} else {
		w.buf[w.next] = s
	}
	w.next++
	if w.next == w.size {
		w.next = 0
	}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return len(w.buf)
}

// Cap returns the configured window size.
func (w *Window) Cap() int {
	return w.size
}

// Values returns the held samples, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, 0, len(w.buf))
	w.each(func(s sample) {
		out = append(out, s.f)
	})
	return out
}

func (w *Window) each(fn func(sample)) {
	if len(w.buf) < w.size {
		for _, s := range w.buf {
			fn(s)
		}
		return
	}
	for i := 0; i < w.size; i++ {
		fn(w.buf[(w.next+i)%w.size])
	}
}

// Summary scans the buffer and returns the moments of its contents.
func (w *Window) Summary() Summary {
	m := NewMoments(w.integer)
	w.each(func(s sample) {
		m.add(s.f, s.i)
	})
	return m.Summary()
}

// Clear empties the buffer, keeping its capacity.
func (w *Window) Clear() {
	w.buf = w.buf[:0]
	w.next = 0
}
