package config

import (
	"io"

	"github.com/blagojts/viper"
	"github.com/pkg/errors"
	"github.com/timescale/statsets/pkg/stats"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultName is the config file looked up in the working directory
	// when no path is given.
	DefaultName = "config"
	layoutKey   = "layout"
)

// Load reads the config file at path into a new viper instance. Without a
// path ./config.yaml is used if it exists; a missing default file is not an
// error.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrap(err, "could not read config")
		}
	}
	return v, nil
}

// Read returns the validated layout under the top-level layout key.
func Read(v *viper.Viper) (*Layout, error) {
	sub := v.Sub(layoutKey)
	if sub == nil {
		return nil, errors.Errorf("config didn't have a top-level '%s' object", layoutKey)
	}
	var l Layout
	if err := sub.Unmarshal(&l); err != nil {
		return nil, errors.Wrap(err, "could not parse layout")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Example returns a layout measuring the current process.
func Example() *Layout {
	return &Layout{
		Name: "process",
		Stats: []StatConfig{
			{Name: "samples", Kind: KindCounter, Source: "samples"},
			{
				Name:   "cpu",
				Kind:   KindRunning,
				Type:   "float",
				Units:  &UnitsConfig{Singular: "percent", Plural: "percent"},
				Source: "cpu",
			},
			{
				Name:   "sample-latency",
				Kind:   KindHier,
				Type:   "time",
				Levels: []stats.Dimension{{Period: 10, Retain: 2}, {Period: 6}, {Period: 24}},
				Source: "latency",
			},
		},
		Sets: []Layout{
			{
				Name: "memory",
				Stats: []StatConfig{
					{
						Name:       "rss",
						Kind:       KindWindow,
						WindowSize: 60,
						Units:      &UnitsConfig{Singular: "byte", Plural: "bytes"},
						Source:     "rss",
					},
					{
						Name:      "vms",
						Kind:      KindHier,
						GroupSize: 4,
						Units:     &UnitsConfig{Singular: "byte", Plural: "bytes"},
						Source:    "vms",
					},
				},
			},
			{
				Name: "threads",
				Stats: []StatConfig{
					{Name: "count", Kind: KindWindow, WindowSize: 60, Source: "threads"},
				},
			},
		},
	}
}

type exampleFile struct {
	Layout *Layout `yaml:"layout"`
}

// ExampleYAML returns Example encoded as a config file.
func ExampleYAML() ([]byte, error) {
	out, err := yaml.Marshal(exampleFile{Layout: Example()})
	if err != nil {
		return nil, errors.Wrap(err, "could not convert example config to yaml")
	}
	return out, nil
}

// WriteExample writes ExampleYAML to w.
func WriteExample(w io.Writer) error {
	out, err := ExampleYAML()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
