// Package sets organizes named statistics into a tree of sets that can be
// printed, cleared or walked as a unit.
//
// A tree is built in one of two modes. An exclusive tree does no locking and
// must be used from one goroutine at a time. A shared tree guards each
// node's members with the node's own mutex and switches every inserted
// statistic to locked recording, so goroutines may record into and mutate
// disjoint subtrees concurrently. Linking and unlinking nested sets of
// shared trees is serialized by one package lock. Otherwise there is no
// tree-wide lock: PrintTree, ClearTree and Traverse lock one node at a time
// and do not observe the tree as a single snapshot.
package sets

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/timescale/statsets/pkg/stats"
)

// Separator joins the names of a hierarchical title.
const Separator = " ==> "

// Mode selects the concurrency discipline of a tree.
type Mode int

const (
	// Exclusive trees have a single owner and no locking.
	Exclusive Mode = iota
	// Shared trees lock each node and statistic individually.
	Shared
)

func (m Mode) String() string {
	if m == Shared {
		return "shared"
	}
	return "exclusive"
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// linkMu serializes parent link changes in shared trees. It is taken before
// any node lock.
var linkMu sync.Mutex

func (n *Node) lockLinks() func() {
	if n.mode != Shared {
		return func() {}
	}
	linkMu.Lock()
	return linkMu.Unlock
}

func newLocker(m Mode) sync.Locker {
	if m == Shared {
		return &sync.Mutex{}
	}
	return noLock{}
}

// Member is one named entry of a set: a statistic or a nested set.
type Member struct {
	Name string
	Stat stats.Statistic
	Set  *Node
}

// IsSet reports whether the member is a nested set.
func (m Member) IsSet() bool {
	return m.Set != nil
}

// Node is a named set of members kept in insertion order. A node owns its
// members; the parent link is only used to compose titles.
type Node struct {
	name string
	mode Mode
	mu   sync.Locker

	parent  *Node
	members []Member
}

// NewSet returns an empty root of an exclusive tree.
func NewSet(name string) *Node {
	return newNode(name, Exclusive)
}

// NewSharedSet returns an empty root of a shared tree.
func NewSharedSet(name string) *Node {
	return newNode(name, Shared)
}

func newNode(name string, mode Mode) *Node {
	return &Node{name: name, mode: mode, mu: newLocker(mode)}
}

func (n *Node) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *Node) Mode() Mode { return n.mode }

// Parent returns the set holding n, or nil for a root.
func (n *Node) Parent() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

func (n *Node) find(name string) int {
	for i := range n.members {
		if n.members[i].Name == name {
			return i
		}
	}
	return -1
}

// Insert adds a statistic under name. In a shared tree the statistic is
// switched to locked recording first.
func (n *Node) Insert(name string, s stats.Statistic) error {
	if s == nil {
		return errors.Wrapf(stats.ErrInvalidConfiguration, "nil statistic %q", name)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.find(name) >= 0 {
		return errors.Wrapf(stats.ErrDuplicateName, "%q in %q", name, n.name)
	}
	if n.mode == Shared {
		s.Share()
	}
	n.members = append(n.members, Member{Name: name, Stat: s})
	return nil
}

// InsertSet adds child as a nested set under name. The child must be a root
// of the same mode and must not be n or one of its ancestors.
func (n *Node) InsertSet(name string, child *Node) error {
	if child == nil {
		return errors.Wrapf(stats.ErrInvalidConfiguration, "nil set %q", name)
	}
	if child.mode != n.mode {
		return errors.Wrapf(stats.ErrInvalidConfiguration, "%s set %q into %s set %q",
			child.mode, name, n.mode, n.name)
	}
	defer n.lockLinks()()
	for a := n; a != nil; a = a.Parent() {
		if a == child {
			return errors.Wrapf(stats.ErrInvalidConfiguration, "cycle: %q is an ancestor of %q", name, n.name)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.find(name) >= 0 {
		return errors.Wrapf(stats.ErrDuplicateName, "%q in %q", name, n.name)
	}
	child.mu.Lock()
	defer child.mu.Unlock()
	// the member name is the child's name from now on
	if child.parent != nil {
		return errors.Wrapf(stats.ErrInvalidConfiguration, "set %q already belongs to %q", name, child.parent.name)
	}
	child.parent = n
	child.name = name
	n.members = append(n.members, Member{Name: name, Set: child})
	return nil
}

// Remove drops the direct member called name.
func (n *Node) Remove(name string) error {
	defer n.lockLinks()()
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.find(name)
	if i < 0 {
		return errors.Wrapf(stats.ErrNotFound, "%q in %q", name, n.name)
	}
	m := n.members[i]
	n.members = append(n.members[:i], n.members[i+1:]...)
	if m.Set != nil {
		m.Set.mu.Lock()
		m.Set.parent = nil
		m.Set.mu.Unlock()
	}
	return nil
}

// Lookup returns the direct member called name.
func (n *Node) Lookup(name string) (Member, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.find(name)
	if i < 0 {
		return Member{}, errors.Wrapf(stats.ErrNotFound, "%q in %q", name, n.name)
	}
	return n.members[i], nil
}

// LookupStat returns the direct statistic member called name.
func (n *Node) LookupStat(name string) (stats.Statistic, error) {
	m, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	if m.Stat == nil {
		return nil, errors.Wrapf(stats.ErrNotFound, "%q in %q is a set", name, n.name)
	}
	return m.Stat, nil
}

// LookupSet returns the direct set member called name.
func (n *Node) LookupSet(name string) (*Node, error) {
	m, err := n.Lookup(name)
	if err != nil {
		return nil, err
	}
	if m.Set == nil {
		return nil, errors.Wrapf(stats.ErrNotFound, "%q in %q is a statistic", name, n.name)
	}
	return m.Set, nil
}

// Len returns the number of direct members.
func (n *Node) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.members)
}

// Names returns the names of the direct members in insertion order.
func (n *Node) Names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.members))
	for i, m := range n.members {
		out[i] = m.Name
	}
	return out
}

func (n *Node) snapshot() []Member {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Member(nil), n.members...)
}
