// Package sampler periodically measures a process into a statistic tree.
package sampler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/timescale/statsets/pkg/config"
	"github.com/timescale/statsets/pkg/sets"
	"github.com/timescale/statsets/pkg/stats"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// Sources a layout may bind statistics to.
const (
	SourceCPU     = "cpu"
	SourceRSS     = "rss"
	SourceVMS     = "vms"
	SourceThreads = "threads"
	// SourceLatency is the time taken by one reading.
	SourceLatency = "latency"
	SourceSamples = "samples"
	SourceErrors  = "errors"
)

var knownSources = map[string]bool{
	SourceCPU: true, SourceRSS: true, SourceVMS: true, SourceThreads: true,
	SourceLatency: true, SourceSamples: true, SourceErrors: true,
}

// Config controls a sampling run.
type Config struct {
	// PID is the measured process, the sampler itself when zero.
	PID      int32         `mapstructure:"pid" yaml:"pid"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// Rate caps readings per second; zero means no cap.
	Rate  float64 `mapstructure:"rate" yaml:"rate"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
	// Workers taking readings concurrently. More than one needs a shared
	// tree.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// AdvanceEvery retires the live instance of every hierarchy after this
	// many readings.
	AdvanceEvery int64 `mapstructure:"advance-every" yaml:"advance-every"`
	// ReportEvery prints the tree after this many readings.
	ReportEvery int64 `mapstructure:"report-every" yaml:"report-every"`
	// Limit stops the run after this many readings; zero runs until the
	// context is done.
	Limit int64 `mapstructure:"limit" yaml:"limit"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Second,
		Burst:        1,
		Workers:      1,
		AdvanceEvery: 10,
		ReportEvery:  60,
	}
}

func (c *Config) validate(mode sets.Mode) error {
	switch {
	case c.Interval <= 0:
		return errors.Wrapf(stats.ErrInvalidConfiguration, "interval %v", c.Interval)
	case c.Rate < 0:
		return errors.Wrapf(stats.ErrInvalidConfiguration, "rate %v", c.Rate)
	case c.Workers < 1:
		return errors.Wrapf(stats.ErrInvalidConfiguration, "workers %d", c.Workers)
	case c.Workers > 1 && mode != sets.Shared:
		return errors.Wrapf(stats.ErrInvalidConfiguration, "%d workers need a shared tree", c.Workers)
	case c.AdvanceEvery < 0 || c.ReportEvery < 0 || c.Limit < 0:
		return errors.Wrap(stats.ErrInvalidConfiguration, "negative count")
	}
	return nil
}

// Sampler feeds readings of a Probe into the statistics of a tree bound to
// the matching sources.
type Sampler struct {
	cfg     Config
	tree    *config.Tree
	probe   Probe
	timer   stats.Timer
	limiter *rate.Limiter
	log     *logging.Logger

	outMu sync.Mutex
	out   io.Writer

	readings *atomic.Int64
	failures *atomic.Int64
}

// New returns a sampler. Reports are printed to out.
func New(cfg Config, tree *config.Tree, probe Probe, out io.Writer, log *logging.Logger) (*Sampler, error) {
	if err := cfg.validate(tree.Root.Mode()); err != nil {
		return nil, err
	}
	for src := range tree.Sources {
		if !knownSources[src] {
			return nil, errors.Wrapf(stats.ErrInvalidConfiguration, "unknown source %q", src)
		}
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Sampler{
		cfg:      cfg,
		tree:     tree,
		probe:    probe,
		timer:    stats.NewMonotonicTimer(),
		limiter:  rate.NewLimiter(limit, burst),
		log:      log,
		out:      out,
		readings: atomic.NewInt64(0),
		failures: atomic.NewInt64(0),
	}, nil
}

// Readings returns the number of readings taken, failed ones included.
func (s *Sampler) Readings() int64 { return s.readings.Load() }

// Failures returns the number of failed readings.
func (s *Sampler) Failures() int64 { return s.failures.Load() }

// Run samples until the limit is reached or ctx is done, then prints a final
// report. A cancelled context is not an error.
func (s *Sampler) Run(ctx context.Context) error {
	s.log.Infof("sampling every %v with %d workers", s.cfg.Interval, s.cfg.Workers)

	ticks := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ticks {
				s.sample(ctx)
			}
		}()
	}

	err := s.schedule(ctx, ticks)
	close(ticks)
	wg.Wait()

	s.log.Infof("stopped after %d readings, %d failed", s.Readings(), s.Failures())
	if rerr := s.report(); rerr != nil {
		return rerr
	}
	return err
}

func (s *Sampler) schedule(ctx context.Context, ticks chan<- struct{}) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for n := int64(0); s.cfg.Limit == 0 || n < s.cfg.Limit; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "rate limiter")
		}
		select {
		case <-ctx.Done():
			return nil
		case ticks <- struct{}{}:
		}
	}
	return nil
}

func (s *Sampler) sample(ctx context.Context) {
	iv := stats.NewInterval(s.timer)
	r, err := s.probe.Read(ctx)
	elapsed := iv.Finish()
	n := s.readings.Inc()

	if err != nil {
		s.failures.Inc()
		s.log.Warningf("reading %d failed: %v", n, err)
		s.each(SourceErrors, func(st stats.Statistic) { st.Record(1) })
	} else {
		s.each(SourceCPU, func(st stats.Statistic) { st.RecordFloat(r.CPU) })
		s.each(SourceRSS, func(st stats.Statistic) { st.Record(int64(r.RSS)) })
		s.each(SourceVMS, func(st stats.Statistic) { st.Record(int64(r.VMS)) })
		s.each(SourceThreads, func(st stats.Statistic) { st.Record(int64(r.Threads)) })
		s.each(SourceLatency, func(st stats.Statistic) { st.RecordTime(elapsed) })
	}
	s.each(SourceSamples, func(st stats.Statistic) { st.Record(1) })

	if s.cfg.AdvanceEvery > 0 && n%s.cfg.AdvanceEvery == 0 {
		for _, h := range s.tree.Hiers {
			h.Advance()
		}
		s.log.Debugf("advanced %d hierarchies after %d readings", len(s.tree.Hiers), n)
	}
	if s.cfg.ReportEvery > 0 && n%s.cfg.ReportEvery == 0 {
		if err := s.report(); err != nil {
			s.log.Errorf("report failed: %v", err)
		}
	}
}

func (s *Sampler) each(src string, fn func(stats.Statistic)) {
	for _, st := range s.tree.Sources[src] {
		fn(st)
	}
}

func (s *Sampler) report() error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return errors.Wrap(s.tree.Root.PrintTree(s.out), "could not print report")
}
