package stats

import (
	"math"
	"math/bits"

	"github.com/dustin/go-humanize"
)

const logBuckets = 64

// PseudoLog returns the bucket of v in a LogHistogram: the smallest i with
// |v| <= 2^i. Zero and one share bucket 0 and math.MinInt64 goes to the
// last bucket.
func PseudoLog(v int64) int {
	if v == math.MinInt64 {
		return logBuckets - 1
	}
	if v < 0 {
		v = -v
	}
	if v <= 1 {
		return 0
	}
	return bits.Len64(uint64(v - 1))
}

// LogHistogram counts integer samples by the pseudo-log of their magnitude,
// with separate buckets for negative samples.
type LogHistogram struct {
	Negative [logBuckets]uint64
	Positive [logBuckets]uint64
}

// Record counts one sample.
func (h *LogHistogram) Record(v int64) {
	if v < 0 {
		h.Negative[PseudoLog(v)]++
		return
	}
	h.Positive[PseudoLog(v)]++
}

// Count returns the number of counted samples.
func (h *LogHistogram) Count() uint64 {
	var n uint64
	for i := range h.Positive {
		n += h.Negative[i] + h.Positive[i]
	}
	return n
}

// Mode returns the pseudo-log of the fullest bucket, negated for a negative
// bucket. The first of equally full buckets wins, negative ones first.
func (h *LogHistogram) Mode() int {
	mode, max := 0, uint64(0)
	for i, c := range h.Negative {
		if c > max {
			mode, max = -i, c
		}
	}
	for i, c := range h.Positive {
		if c > max {
			mode, max = i, c
		}
	}
	return mode
}

// ModeValue returns a representative sample of the mode bucket: three
// quarters of its upper bound.
func (h *LogHistogram) ModeValue() int64 {
	mode := h.Mode()
	neg := mode < 0
	if neg {
		mode = -mode
	}
	v := uint64(1) << uint(mode)
	v -= v / 4
	if neg {
		return -int64(v)
	}
	return int64(v)
}

// Merge adds the counts of o.
func (h *LogHistogram) Merge(o *LogHistogram) {
	for i := range h.Positive {
		h.Negative[i] += o.Negative[i]
		h.Positive[i] += o.Positive[i]
	}
}

func (h *LogHistogram) Clear() {
	*h = LogHistogram{}
}

const (
	exponentBias       = 1023
	maxBiasedExponent  = 2047
	floatBucketDivisor = 16
	// rounded up to whole print rows of four
	floatBuckets = (maxBiasedExponent/floatBucketDivisor + 4) / 4 * 4
)

// FloatHistogram counts float samples by their binary exponent, sixteen
// exponents per bucket. NaNs are only counted; infinities are counted and
// also go to the last bucket.
type FloatHistogram struct {
	Negative   [floatBuckets]uint64
	Positive   [floatBuckets]uint64
	Samples    uint64
	NaNs       uint64
	Infinities uint64
}

func floatBucket(x float64) int {
	switch {
	case math.IsInf(x, 0):
		return maxBiasedExponent / floatBucketDivisor
	case x == 0:
		return exponentBias / floatBucketDivisor
	}
	exp := int(math.Float64bits(x)>>52) & maxBiasedExponent
	return exp / floatBucketDivisor
}

// Record counts one sample.
func (h *FloatHistogram) Record(x float64) {
	if math.IsNaN(x) {
		h.NaNs++
		return
	}
	if math.IsInf(x, 0) {
		h.Infinities++
	}
	h.Samples++
	if x < 0 {
		h.Negative[floatBucket(x)]++
		return
	}
	h.Positive[floatBucket(x)]++
}

// Count returns the number of samples that are not NaN.
func (h *FloatHistogram) Count() uint64 { return h.Samples }

// Mode returns the sign and the middle binary exponent of the fullest
// bucket.
func (h *FloatHistogram) Mode() (sign, exp int) {
	mode, max := 0, h.Negative[0]
	sign = -1
	for i := 1; i < floatBuckets; i++ {
		if h.Negative[i] > max {
			mode, max = i, h.Negative[i]
		}
	}
	for i, c := range h.Positive {
		if c > max {
			mode, max, sign = i, c, 1
		}
	}
	return sign, mode*floatBucketDivisor + floatBucketDivisor/2 - exponentBias
}

// ModeValue returns three quarters of two raised to the mode exponent,
// signed like the mode bucket.
func (h *FloatHistogram) ModeValue() float64 {
	sign, exp := h.Mode()
	v := math.Ldexp(1, exp)
	return float64(sign) * (v - v/4)
}

// Merge adds the counts of o.
func (h *FloatHistogram) Merge(o *FloatHistogram) {
	for i := range h.Positive {
		h.Negative[i] += o.Negative[i]
		h.Positive[i] += o.Positive[i]
	}
	h.Samples += o.Samples
	h.NaNs += o.NaNs
	h.Infinities += o.Infinities
}

func (h *FloatHistogram) Clear() {
	*h = FloatHistogram{}
}

func commas(n uint64) string {
	return humanize.Comma(int64(n))
}

// logHistogram prints the negative rows from the most negative down to
// zero, then the positive rows up to the last non-empty bucket.
func (p *printer) logHistogram(h *LogHistogram) {
	p.line("  Log Histogram")
	top := logBuckets - 1
	for top > 0 && h.Negative[top] == 0 {
		top--
	}
	if h.Negative[top] != 0 {
		for i := top / 4 * 4; i >= 0; i -= 4 {
			p.line("  %3d:    %14s    %14s    %14s    %14s", -i,
				commas(h.Negative[i]), commas(h.Negative[i+1]),
				commas(h.Negative[i+2]), commas(h.Negative[i+3]))
		}
	}
	p.line("  -----------------------")
	last := logBuckets - 1
	for last > 0 && h.Positive[last] == 0 {
		last--
	}
	for i := 0; i <= last; i += 4 {
		p.line("  %3d:    %14s    %14s    %14s    %14s", i,
			commas(h.Positive[i]), commas(h.Positive[i+1]),
			commas(h.Positive[i+2]), commas(h.Positive[i+3]))
	}
}

// floatHistogram prints like logHistogram but labels rows with the binary
// exponent of their first bucket and skips empty rows.
func (p *printer) floatHistogram(h *FloatHistogram) {
	p.line("  Float Histogram:  (%d NaN, %d infinite, %d samples)", h.NaNs, h.Infinities, h.Samples)
	row := func(prefix string, b *[floatBuckets]uint64, i int) {
		if b[i]|b[i+1]|b[i+2]|b[i+3] == 0 {
			return
		}
		p.line("    %s2^%5d:    %10s    %10s    %10s    %10s", prefix,
			i*floatBucketDivisor-exponentBias,
			commas(b[i]), commas(b[i+1]), commas(b[i+2]), commas(b[i+3]))
	}
	for i := (floatBuckets - 1) / 4 * 4; i >= 0; i -= 4 {
		row("-", &h.Negative, i)
	}
	p.line("  -----------------------")
	if h.Samples == 0 {
		return
	}
	for i := 0; i < floatBuckets; i += 4 {
		row("", &h.Positive, i)
	}
}
