// Package config describes statistic trees in YAML and builds them.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/timescale/statsets/pkg/stats"
)

// Statistic kinds accepted in a layout.
const (
	KindRunning = "running"
	KindWindow  = "window"
	KindHier    = "hier"
	KindCounter = "counter"
)

var validKinds = []string{KindRunning, KindWindow, KindHier, KindCounter}

// UnitsConfig labels printed values.
type UnitsConfig struct {
	Singular string `mapstructure:"singular" yaml:"singular"`
	Plural   string `mapstructure:"plural" yaml:"plural"`
}

// StatConfig describes one statistic of a set.
type StatConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Type is integer, time or float. Counters ignore it.
	Type        string            `mapstructure:"type" yaml:"type,omitempty"`
	WindowSize  int               `mapstructure:"window-size" yaml:"window-size,omitempty"`
	GroupSize   int               `mapstructure:"group-size" yaml:"group-size,omitempty"`
	Levels      []stats.Dimension `mapstructure:"levels" yaml:"levels,omitempty"`
	AutoAdvance int64             `mapstructure:"auto-advance" yaml:"auto-advance,omitempty"`
	Units       *UnitsConfig      `mapstructure:"units" yaml:"units,omitempty"`
	// Source names the measurement feeding the statistic, if any.
	Source string `mapstructure:"source" yaml:"source,omitempty"`
}

// Layout describes a set: its statistics followed by its nested sets.
type Layout struct {
	Name  string       `mapstructure:"name" yaml:"name"`
	Stats []StatConfig `mapstructure:"stats" yaml:"stats,omitempty"`
	Sets  []Layout     `mapstructure:"sets" yaml:"sets,omitempty"`
}

func invalid(path, format string, args ...interface{}) error {
	return errors.Wrapf(stats.ErrInvalidConfiguration, "%s: %s", path, fmt.Sprintf(format, args...))
}

// Validate checks the whole layout tree.
func (l *Layout) Validate() error {
	return l.validate("")
}

func (l *Layout) validate(parent string) error {
	path := l.Name
	if parent != "" {
		path = parent + "." + l.Name
	}
	if l.Name == "" {
		return invalid(parent, "set without a name")
	}
	seen := make(map[string]bool)
	claim := func(name string) error {
		if seen[name] {
			return errors.Wrapf(stats.ErrDuplicateName, "%s: %q", path, name)
		}
		seen[name] = true
		return nil
	}
	for i := range l.Stats {
		s := &l.Stats[i]
		if s.Name == "" {
			return invalid(path, "statistic %d without a name", i)
		}
		if err := claim(s.Name); err != nil {
			return err
		}
		if err := s.validate(path + "." + s.Name); err != nil {
			return err
		}
	}
	for i := range l.Sets {
		if err := claim(l.Sets[i].Name); err != nil {
			return err
		}
		if err := l.Sets[i].validate(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatConfig) dataType() (stats.DataType, error) {
	if s.Type == "" {
		return stats.Integer, nil
	}
	return stats.ParseDataType(s.Type)
}

func (s *StatConfig) validate(path string) error {
	d, err := s.dataType()
	if err != nil && s.Kind != KindCounter {
		return invalid(path, "type %q", s.Type)
	}
	switch s.Kind {
	case KindRunning, KindCounter:
	case KindWindow:
		if s.WindowSize <= 0 {
			return invalid(path, "window size %d", s.WindowSize)
		}
	case KindHier:
		cfg := s.hierConfig(d)
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, path)
		}
	default:
		return invalid(path, "kind %q, valid: %s", s.Kind, strings.Join(validKinds, ", "))
	}
	return nil
}

func (s *StatConfig) units() stats.Units {
	if s.Units == nil {
		return stats.Units{}
	}
	return stats.Units{Singular: s.Units.Singular, Plural: s.Units.Plural}
}

func (s *StatConfig) hierConfig(d stats.DataType) stats.HierConfig {
	return stats.HierConfig{
		Name:        s.Name,
		DataType:    d,
		GroupSize:   s.GroupSize,
		Levels:      s.Levels,
		AutoAdvance: s.AutoAdvance,
		Units:       s.units(),
	}
}
