package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// printer writes the lines of one statistic summary. The first write error
// is kept and later writes are skipped.
type printer struct {
	w   io.Writer
	err error
}

func newPrinter(w io.Writer, title string) *printer {
	p := &printer{w: w}
	p.line("%s", title)
	return p
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	out := strings.TrimRight(fmt.Sprintf(format, args...), " ")
	_, p.err = io.WriteString(p.w, out+"\n")
}

func (p *printer) integer(name string, v int64, u Units) {
	p.line("    %-12s %12s %s", name, humanize.Comma(v), u.label(v != 1))
}

func (p *printer) float(name string, v float64, u Units) {
	p.line("    %-12s %16s %s", name, formatFloat(v), u.label(v != 1))
}

func (p *printer) time(name string, ticks float64, hz int64) {
	v, unit := scaleTime(ticks, hz)
	if v > 999999 {
		p.line("    %-12s %16s %s", name, formatFloat(v), unit)
		return
	}
	p.line("    %-12s %12.3f %s", name, v, unit)
}

// spread prints the values that need more than one sample; the ones the
// summary cannot provide yet are left out.
func (p *printer) spread(s Summary, fn func(string, float64)) {
	if v, err := s.Mean(); err == nil {
		fn("Mean", v)
	}
	if v, err := s.StdDev(); err == nil {
		fn("Std Dev", v)
	}
}

func (p *printer) shape(s Summary) {
	if v, err := s.Variance(); err == nil {
		p.float("Variance", v, Units{})
	}
	if v, err := s.Skewness(); err == nil {
		p.float("Skewness", v, Units{})
	}
	if v, err := s.Kurtosis(); err == nil {
		p.float("Kurtosis", v, Units{})
	}
}

func (p *printer) integers(s Summary, h *LogHistogram, u Units) {
	p.integer("Count", int64(s.Count), Units{})
	if s.Count == 0 {
		return
	}
	min, _ := s.MinInt()
	max, _ := s.MaxInt()
	p.integer("Minimum", min, u)
	p.integer("Maximum", max, u)
	p.integer("Log Mode", int64(h.Mode()), Units{})
	p.integer("Mode Value", h.ModeValue(), u)
	p.spread(s, func(name string, v float64) { p.float(name, v, u) })
	p.shape(s)
}

func (p *printer) floats(s Summary, h *FloatHistogram, u Units) {
	p.integer("Count", int64(s.Count), Units{})
	p.integer("NaNs", int64(s.NaNs), Units{})
	p.integer("Infinities", int64(s.Infinities), Units{})
	if s.Count == 0 {
		return
	}
	min, _ := s.Min()
	max, _ := s.Max()
	p.float("Minimum", min, u)
	p.float("Maximum", max, u)
	p.float("Mode Value", h.ModeValue(), u)
	p.spread(s, func(name string, v float64) { p.float(name, v, u) })
	p.shape(s)
}

func (p *printer) times(s Summary, h *LogHistogram, hz int64) {
	p.integer("Count", int64(s.Count), Units{})
	if s.Count == 0 {
		return
	}
	min, _ := s.MinInt()
	max, _ := s.MaxInt()
	p.time("Minimum", float64(min), hz)
	p.time("Maximum", float64(max), hz)
	p.integer("Log Mode", int64(h.Mode()), Units{})
	p.time("Mode Value", float64(h.ModeValue()), hz)
	p.spread(s, func(name string, v float64) { p.time(name, v, hz) })
	p.shape(s)
}

// formatFloat renders v with a sign and a seven digit mantissa.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprintf("%+.6e", v)
}

var timeScales = []struct {
	unit  string
	scale float64
}{
	{"day", float64(24 * 3600 * 1e9)},
	{"hour", float64(3600 * 1e9)},
	{"minute", float64(60 * 1e9)},
	{"second", 1e9},
	{"millisecond", 1e6},
	{"microsecond", 1e3},
}

// scaleTime converts ticks at hz into the largest unit not exceeding it.
func scaleTime(ticks float64, hz int64) (float64, string) {
	ns := ticks * (1e9 / float64(hz))
	unit, scale := "nanosecond", 1.0
	for _, ts := range timeScales {
		if math.Abs(ns) >= ts.scale {
			unit, scale = ts.unit, ts.scale
			break
		}
	}
	if ns != scale {
		unit += "s"
	}
	return ns / scale, unit
}

func percentileLabel(q float64) string {
	return "p" + strconv.FormatFloat(q, 'f', -1, 64)
}
