package sets

import (
	"io"
	"strings"
)

// Title returns the names from the root down to n joined by Separator.
func (n *Node) Title() string {
	var names []string
	for a := n; a != nil; a = a.Parent() {
		names = append(names, a.Name())
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, Separator)
}

// Visitor is called for every member reached by Traverse with the member's
// hierarchical title.
type Visitor func(title string, m Member) error

// Traverse walks the subtree below n depth first in insertion order, calling
// fn for each member before descending into it. The first error stops the
// walk and is returned.
func (n *Node) Traverse(fn Visitor) error {
	return n.walk(n.Title(), fn)
}

func (n *Node) walk(prefix string, fn Visitor) error {
	// members are copied so fn runs without n locked
	for _, m := range n.snapshot() {
		title := prefix + Separator + m.Name
		if err := fn(title, m); err != nil {
			return err
		}
		if m.Set != nil {
			if err := m.Set.walk(title, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrintTree prints every statistic below n under its hierarchical title.
func (n *Node) PrintTree(w io.Writer) error {
	return n.Traverse(func(title string, m Member) error {
		if m.Stat == nil {
			return nil
		}
		return m.Stat.Print(w, title)
	})
}

// ClearTree clears every statistic below n, keeping the tree structure.
func (n *Node) ClearTree() {
	// the visitor never fails
	_ = n.Traverse(func(_ string, m Member) error {
		if m.Stat != nil {
			m.Stat.Clear()
		}
		return nil
	})
}
