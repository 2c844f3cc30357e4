package config

import (
	"github.com/timescale/statsets/pkg/sets"
	"github.com/timescale/statsets/pkg/stats"
)

// Tree is a statistic tree built from a layout.
type Tree struct {
	Root *sets.Node
	// Sources maps a source name to the statistics it feeds, in layout
	// order.
	Sources map[string][]stats.Statistic
	// Hiers lists every hierarchy of the tree so a driver can advance them.
	Hiers []*stats.Hier
}

// Build validates l and creates its tree in the given mode.
func Build(l *Layout, mode sets.Mode) (*Tree, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	root := sets.NewSet(l.Name)
	if mode == sets.Shared {
		root = sets.NewSharedSet(l.Name)
	}
	t := &Tree{Root: root, Sources: make(map[string][]stats.Statistic)}
	if err := t.fill(root, l); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) fill(n *sets.Node, l *Layout) error {
	for i := range l.Stats {
		s, err := t.add(n, &l.Stats[i])
		if err != nil {
			return err
		}
		if src := l.Stats[i].Source; src != "" {
			t.Sources[src] = append(t.Sources[src], s)
		}
	}
	for i := range l.Sets {
		child, err := n.AddSubset(l.Sets[i].Name)
		if err != nil {
			return err
		}
		if err := t.fill(child, &l.Sets[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) add(n *sets.Node, c *StatConfig) (stats.Statistic, error) {
	d, _ := c.dataType()
	switch c.Kind {
	case KindHier:
		h, err := n.AddHier(c.hierConfig(d))
		if err != nil {
			return nil, err
		}
		t.Hiers = append(t.Hiers, h)
		return h, nil
	case KindWindow:
		return n.AddStat(stats.Options{Name: c.Name, Kind: stats.WindowKind(d), WindowSize: c.WindowSize, Units: c.units()})
	case KindCounter:
		return n.AddStat(stats.Options{Name: c.Name, Kind: stats.EventCounter, Units: c.units()})
	default:
		return n.AddStat(stats.Options{Name: c.Name, Kind: stats.RunningKind(d), Units: c.units()})
	}
}
