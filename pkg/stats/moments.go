package stats

import (
	"math"

	"github.com/pkg/errors"
)

// Summary is a snapshot of the moments of a sample stream. The zero value is
// the empty summary. Values that need more samples than were recorded are
// reported through ErrInsufficientData instead of being computed.
type Summary struct {
	Count      uint64
	NaNs       uint64
	Infinities uint64
	// Integer marks summaries of integer (or tick) samples, whose extremes
	// are also kept exactly as int64.
	Integer bool

	mean float64
	// sums of powers of deviations from the mean
	m2 float64
	m3 float64
	m4 float64

	min    float64
	max    float64
	minInt int64
	maxInt int64
}

// Mean returns the arithmetic mean of the samples.
func (s Summary) Mean() (float64, error) {
	if s.Count == 0 {
		return 0, errors.Wrap(ErrInsufficientData, "mean needs one sample")
	}
	return s.mean, nil
}

// Variance returns the sample variance, M2/(n-1).
func (s Summary) Variance() (float64, error) {
	if s.Count < 2 {
		return 0, errors.Wrap(ErrInsufficientData, "variance needs two samples")
	}
	return s.m2 / float64(s.Count-1), nil
}

// StdDev returns the sample standard deviation.
func (s Summary) StdDev() (float64, error) {
	v, err := s.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// Skewness returns the adjusted Fisher-Pearson skewness.
func (s Summary) Skewness() (float64, error) {
	if s.Count < 3 {
		return 0, errors.Wrap(ErrInsufficientData, "skewness needs three samples")
	}
	if s.m2 <= 0 {
		return 0, nil
	}
	n := float64(s.Count)
	g := (s.m3 / n) / math.Pow(s.m2/n, 1.5)
	return g * math.Sqrt(n*(n-1)) / (n - 2), nil
}

// Kurtosis returns the sample excess kurtosis.
func (s Summary) Kurtosis() (float64, error) {
	if s.Count < 4 {
		return 0, errors.Wrap(ErrInsufficientData, "kurtosis needs four samples")
	}
	if s.m2 <= 0 || s.m4 <= 0 {
		return 0, nil
	}
	n := float64(s.Count)
	g := s.m4/(s.m2*s.m2/n) - 3
	return (n - 1) / ((n - 2) * (n - 3)) * ((n+1)*g + 6), nil
}

// Min returns the smallest finite sample.
func (s Summary) Min() (float64, error) {
	if s.Count == 0 {
		return 0, errors.Wrap(ErrInsufficientData, "minimum needs one sample")
	}
	return s.min, nil
}

// Max returns the largest finite sample.
func (s Summary) Max() (float64, error) {
	if s.Count == 0 {
		return 0, errors.Wrap(ErrInsufficientData, "maximum needs one sample")
	}
	return s.max, nil
}

// MinInt returns the smallest sample of an integer summary. For float
// summaries the minimum is truncated.
func (s Summary) MinInt() (int64, error) {
	if s.Count == 0 {
		return 0, errors.Wrap(ErrInsufficientData, "minimum needs one sample")
	}
	if !s.Integer {
		return int64(s.min), nil
	}
	return s.minInt, nil
}

// MaxInt returns the largest sample of an integer summary. For float
// summaries the maximum is truncated.
func (s Summary) MaxInt() (int64, error) {
	if s.Count == 0 {
		return 0, errors.Wrap(ErrInsufficientData, "maximum needs one sample")
	}
	if !s.Integer {
		return int64(s.max), nil
	}
	return s.maxInt, nil
}

// Merge combines two summaries into the summary of the union of their
// samples using the pairwise update formulas, without the raw samples.
func Merge(a, b Summary) Summary {
	a.NaNs += b.NaNs
	a.Infinities += b.Infinities
	a.Integer = a.Integer && b.Integer
	if b.Count == 0 {
		return a
	}
	if a.Count == 0 {
		b.NaNs = a.NaNs
		b.Infinities = a.Infinities
		b.Integer = a.Integer
		return b
	}

	na := float64(a.Count)
	nb := float64(b.Count)
	n := na + nb
	delta := b.mean - a.mean
	delta2 := delta * delta

	r := a
	r.Count = a.Count + b.Count
	r.mean = a.mean + delta*nb/n
	r.m2 = a.m2 + b.m2 + delta2*na*nb/n
	r.m3 = a.m3 + b.m3 +
		delta*delta2*na*nb*(na-nb)/(n*n) +
		3*delta*(na*b.m2-nb*a.m2)/n
	r.m4 = a.m4 + b.m4 +
		delta2*delta2*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*delta2*(na*na*b.m2+nb*nb*a.m2)/(n*n) +
		4*delta*(na*b.m3-nb*a.m3)/n

	r.min = math.Min(a.min, b.min)
	r.max = math.Max(a.max, b.max)
	if b.minInt < r.minInt {
		r.minInt = b.minInt
	}
	if b.maxInt > r.maxInt {
		r.maxInt = b.maxInt
	}
	return r
}

// Moments accumulates count, mean, higher central moments and extremes of a
// sample stream in constant space. The update is Welford's, extended to the
// third and fourth moments, so rounding error does not grow with the count.
// The zero value accumulates float samples.
type Moments struct {
	s Summary
}

// NewMoments returns an empty accumulator. Integer accumulators keep exact
// int64 extremes.
func NewMoments(integer bool) *Moments {
	return &Moments{s: Summary{Integer: integer}}
}

// Record adds a float sample. NaNs and infinities are only counted.
func (m *Moments) Record(x float64) {
	m.add(x, int64(x))
}

// RecordInt adds an integer sample.
func (m *Moments) RecordInt(v int64) {
	m.add(float64(v), v)
}

func (m *Moments) add(x float64, ix int64) {
	s := &m.s
	if math.IsNaN(x) {
		s.NaNs++
		return
	}
	if math.IsInf(x, 0) {
		s.Infinities++
		return
	}

	n1 := float64(s.Count)
	s.Count++
	n := float64(s.Count)

	delta := x - s.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term := delta * deltaN * n1

	s.mean += deltaN
	s.m4 += term*deltaN2*(n*n-3*n+3) + 6*deltaN2*s.m2 - 4*deltaN*s.m3
	s.m3 += term*deltaN*(n-2) - 3*deltaN*s.m2
	s.m2 += term

	if s.Count == 1 {
		s.min, s.max = x, x
		s.minInt, s.maxInt = ix, ix
		return
	}
	if x < s.min {
		s.min = x
	}
	if x > s.max {
		s.max = x
	}
	if ix < s.minInt {
		s.minInt = ix
	}
	if ix > s.maxInt {
		s.maxInt = ix
	}
}

// Merge folds another summary into the accumulator.
func (m *Moments) Merge(other Summary) {
	m.s = Merge(m.s, other)
}

// Count returns the number of finite samples recorded.
func (m *Moments) Count() uint64 {
	return m.s.Count
}

// Summary returns a snapshot of the accumulator.
func (m *Moments) Summary() Summary {
	return m.s
}

// Clear drops every recorded sample.
func (m *Moments) Clear() {
	m.s = Summary{Integer: m.s.Integer}
}
