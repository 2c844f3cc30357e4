package sets

import "github.com/timescale/statsets/pkg/stats"

// AddSubset creates an empty set of the same mode and inserts it under name.
func (n *Node) AddSubset(name string) (*Node, error) {
	child := newNode(name, n.mode)
	if err := n.InsertSet(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddStat creates a statistic from opts and inserts it under opts.Name.
func (n *Node) AddStat(opts stats.Options) (*stats.Stat, error) {
	s, err := stats.New(opts)
	if err != nil {
		return nil, err
	}
	if err := n.Insert(opts.Name, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (n *Node) AddRunning(name string, d stats.DataType) (*stats.Stat, error) {
	return n.AddStat(stats.Options{Name: name, Kind: stats.RunningKind(d)})
}

func (n *Node) AddWindow(name string, d stats.DataType, size int) (*stats.Stat, error) {
	return n.AddStat(stats.Options{Name: name, Kind: stats.WindowKind(d), WindowSize: size})
}

func (n *Node) AddCounter(name string) (*stats.Stat, error) {
	return n.AddStat(stats.Options{Name: name, Kind: stats.EventCounter})
}

// AddHier creates a hierarchy from cfg and inserts it under cfg.Name.
func (n *Node) AddHier(cfg stats.HierConfig) (*stats.Hier, error) {
	h, err := stats.NewHier(cfg)
	if err != nil {
		return nil, err
	}
	if err := n.Insert(cfg.Name, h); err != nil {
		return nil, err
	}
	return h, nil
}
