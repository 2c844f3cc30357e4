package sampler

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/timescale/statsets/internal/logger"
	"github.com/timescale/statsets/pkg/config"
	"github.com/timescale/statsets/pkg/sets"
	"github.com/timescale/statsets/pkg/stats"
	"go.uber.org/atomic"
)

type fakeProbe struct {
	calls  *atomic.Int64
	failOn int64
}

func newFakeProbe(failOn int64) *fakeProbe {
	return &fakeProbe{calls: atomic.NewInt64(0), failOn: failOn}
}

func (p *fakeProbe) Read(context.Context) (Reading, error) {
	n := p.calls.Inc()
	if n == p.failOn {
		return Reading{}, errors.New("probe failed")
	}
	return Reading{CPU: float64(n), RSS: uint64(100 * n), VMS: uint64(1000 * n), Threads: 4}, nil
}

func testLayout() *config.Layout {
	return &config.Layout{
		Name: "proc",
		Stats: []config.StatConfig{
			{Name: "samples", Kind: config.KindCounter, Source: SourceSamples},
			{Name: "errors", Kind: config.KindCounter, Source: SourceErrors},
			{Name: "cpu", Kind: config.KindRunning, Type: "float", Source: SourceCPU},
			{Name: "latency", Kind: config.KindHier, Type: "time", GroupSize: 2, Source: SourceLatency},
		},
		Sets: []config.Layout{{
			Name: "mem",
			Stats: []config.StatConfig{
				{Name: "rss", Kind: config.KindWindow, WindowSize: 4, Source: SourceRSS},
				{Name: "vms", Kind: config.KindRunning, Source: SourceVMS},
			},
		}},
	}
}

func buildTree(t *testing.T, mode sets.Mode) *config.Tree {
	t.Helper()
	tree, err := config.Build(testLayout(), mode)
	if err != nil {
		t.Fatalf("Build() failed - unexpected error: %v", err)
	}
	return tree
}

func count(t *testing.T, n *sets.Node, name string) uint64 {
	t.Helper()
	s, err := n.LookupStat(name)
	if err != nil {
		t.Fatalf("LookupStat(%q) failed - unexpected error: %v", name, err)
	}
	return s.Summary().Count
}

func TestRunExclusive(t *testing.T) {
	tree := buildTree(t, sets.Exclusive)
	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond
	cfg.AdvanceEvery = 5
	cfg.ReportEvery = 0
	cfg.Limit = 10

	var out bytes.Buffer
	log := logger.New(ioutil.Discard, "ERROR", "sampler")
	s, err := New(cfg, tree, newFakeProbe(3), &out, log)
	if err != nil {
		t.Fatalf("New() failed - unexpected error: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed - unexpected error: %v", err)
	}

	if s.Readings() != 10 || s.Failures() != 1 {
		t.Errorf("incorrect readings: %d, failures %d", s.Readings(), s.Failures())
	}
	root := tree.Root
	if got := count(t, root, "samples"); got != 10 {
		t.Errorf("incorrect samples counter: %d", got)
	}
	if got := count(t, root, "errors"); got != 1 {
		t.Errorf("incorrect errors counter: %d", got)
	}
	if got := count(t, root, "cpu"); got != 9 {
		t.Errorf("incorrect cpu count: %d", got)
	}
	mem, _ := root.LookupSet("mem")
	if got := count(t, mem, "rss"); got != 4 {
		t.Errorf("rss window should be full: %d", got)
	}

	h := tree.Hiers[0]
	if h.Advances() != 2 {
		t.Errorf("incorrect advances: %d", h.Advances())
	}
	if got := h.Total().Count; got != 9 {
		t.Errorf("incorrect latency samples: %d", got)
	}
	if !strings.Contains(out.String(), "proc ==> mem ==> rss") {
		t.Errorf("final report missing:\n%s", out.String())
	}
}

func TestRunSharedWorkers(t *testing.T) {
	tree := buildTree(t, sets.Shared)
	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond
	cfg.Workers = 4
	cfg.AdvanceEvery = 3
	cfg.ReportEvery = 7
	cfg.Limit = 40

	var out bytes.Buffer
	s, err := New(cfg, tree, newFakeProbe(-1), &out, logger.New(ioutil.Discard, "ERROR", "sampler"))
	if err != nil {
		t.Fatalf("New() failed - unexpected error: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed - unexpected error: %v", err)
	}
	if got := count(t, tree.Root, "samples"); got != 40 {
		t.Errorf("incorrect samples counter: %d", got)
	}
	if got := tree.Hiers[0].Advances(); got != 13 {
		t.Errorf("incorrect advances: %d", got)
	}
	// five periodic reports and the final one
	if got := strings.Count(out.String(), "proc ==> samples\n"); got != 6 {
		t.Errorf("incorrect report count: %d", got)
	}
}

func TestRunCancelled(t *testing.T) {
	tree := buildTree(t, sets.Exclusive)
	cfg := DefaultConfig()
	cfg.Interval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s, err := New(cfg, tree, newFakeProbe(-1), ioutil.Discard, logger.New(ioutil.Discard, "ERROR", "sampler"))
	if err != nil {
		t.Fatalf("New() failed - unexpected error: %v", err)
	}
	if err := s.Run(ctx); err != nil {
		t.Errorf("Run() of a cancelled context should not fail: %v", err)
	}
	if s.Readings() == 0 {
		t.Errorf("no readings taken before cancel")
	}
}

func TestNewRejects(t *testing.T) {
	log := logger.New(ioutil.Discard, "ERROR", "sampler")
	cases := []struct {
		desc   string
		mode   sets.Mode
		mutate func(*Config)
		layout func(*config.Layout)
	}{
		{desc: "workers on exclusive tree", mode: sets.Exclusive, mutate: func(c *Config) { c.Workers = 2 }},
		{desc: "zero interval", mode: sets.Shared, mutate: func(c *Config) { c.Interval = 0 }},
		{desc: "no workers", mode: sets.Shared, mutate: func(c *Config) { c.Workers = 0 }},
		{desc: "negative rate", mode: sets.Shared, mutate: func(c *Config) { c.Rate = -1 }},
		{desc: "unknown source", mode: sets.Exclusive, layout: func(l *config.Layout) {
			l.Stats[0].Source = "disk"
		}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			l := testLayout()
			if c.layout != nil {
				c.layout(l)
			}
			tree, err := config.Build(l, c.mode)
			if err != nil {
				t.Fatalf("Build() failed - unexpected error: %v", err)
			}
			cfg := DefaultConfig()
			if c.mutate != nil {
				c.mutate(&cfg)
			}
			if _, err := New(cfg, tree, newFakeProbe(-1), ioutil.Discard, log); !errors.Is(err, stats.ErrInvalidConfiguration) {
				t.Errorf("New() failed - expected invalid configuration, got %v", err)
			}
		})
	}
}
