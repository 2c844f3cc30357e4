package sets

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/timescale/statsets/pkg/stats"
)

func TestTitle(t *testing.T) {
	a := NewSet("A")
	b, err := a.AddSubset("B")
	if err != nil {
		t.Fatalf("AddSubset() failed - unexpected error: %v", err)
	}
	c, _ := b.AddSubset("C")
	x, _ := c.AddRunning("X", stats.Integer)
	x.Record(7)

	if got, want := c.Title(), "A ==> B ==> C"; got != want {
		t.Errorf("Title() failed - got %q want %q", got, want)
	}
	if got := a.Title(); got != "A" {
		t.Errorf("root title should have no separator, got %q", got)
	}

	var buf bytes.Buffer
	if err := a.PrintTree(&buf); err != nil {
		t.Fatalf("PrintTree() failed - unexpected error: %v", err)
	}
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if want := "A ==> B ==> C ==> X"; first != want {
		t.Errorf("PrintTree() failed - title %q want %q", first, want)
	}
}

func TestInsertDuplicate(t *testing.T) {
	cases := []struct {
		desc   string
		second func(n *Node) error
	}{
		{desc: "stat after stat", second: func(n *Node) error {
			return n.Insert("n", stats.NewCounter("n"))
		}},
		{desc: "set after stat", second: func(n *Node) error {
			_, err := n.AddSubset("n")
			return err
		}},
		{desc: "hier after stat", second: func(n *Node) error {
			_, err := n.AddHier(stats.HierConfig{Name: "n", GroupSize: 2})
			return err
		}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			n := NewSet("root")
			if err := n.Insert("n", stats.NewRunning("n", stats.Float)); err != nil {
				t.Fatalf("Insert() failed - unexpected error: %v", err)
			}
			if err := c.second(n); !errors.Is(err, stats.ErrDuplicateName) {
				t.Errorf("second insert: got %v want duplicate name", err)
			}
			if n.Len() != 1 {
				t.Errorf("member count changed after failed insert: %d", n.Len())
			}
		})
	}
}

func TestRemoveAndLookup(t *testing.T) {
	n := NewSet("root")
	n.AddRunning("a", stats.Integer)
	sub, _ := n.AddSubset("b")
	n.AddCounter("c")
	sub.AddRunning("deep", stats.Time)

	if got, want := n.Names(), []string{"a", "b", "c"}; !cmp.Equal(got, want) {
		t.Errorf("Names() failed - diff:\n%s", cmp.Diff(got, want))
	}
	if _, err := n.LookupStat("a"); err != nil {
		t.Errorf("LookupStat() failed - unexpected error: %v", err)
	}
	if _, err := n.LookupSet("a"); !errors.Is(err, stats.ErrNotFound) {
		t.Errorf("LookupSet() of a statistic: got %v", err)
	}
	if got, err := n.LookupSet("b"); err != nil || got != sub {
		t.Errorf("LookupSet() failed - got %v, %v", got, err)
	}
	if _, err := n.Lookup("deep"); !errors.Is(err, stats.ErrNotFound) {
		t.Errorf("Lookup() should not search recursively, got %v", err)
	}

	if err := n.Remove("b"); err != nil {
		t.Fatalf("Remove() failed - unexpected error: %v", err)
	}
	if err := n.Remove("b"); !errors.Is(err, stats.ErrNotFound) {
		t.Errorf("second Remove(): got %v", err)
	}
	if got, want := n.Names(), []string{"a", "c"}; !cmp.Equal(got, want) {
		t.Errorf("Names() after remove failed - diff:\n%s", cmp.Diff(got, want))
	}
	if sub.Parent() != nil || sub.Title() != "b" {
		t.Errorf("removed set still linked to its parent: %q", sub.Title())
	}
}

func TestInsertSetRejects(t *testing.T) {
	root := NewSet("root")
	mid, _ := root.AddSubset("mid")
	leaf, _ := mid.AddSubset("leaf")

	cases := []struct {
		desc   string
		parent *Node
		child  *Node
	}{
		{desc: "self", parent: mid, child: mid},
		{desc: "ancestor into descendant", parent: leaf, child: root},
		{desc: "already owned", parent: root, child: leaf},
		{desc: "mode mismatch", parent: root, child: NewSharedSet("s")},
		{desc: "nil", parent: root, child: nil},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			before := c.parent.Len()
			if err := c.parent.InsertSet("new", c.child); !errors.Is(err, stats.ErrInvalidConfiguration) {
				t.Errorf("InsertSet() failed - expected invalid configuration, got %v", err)
			}
			if c.parent.Len() != before {
				t.Errorf("member count changed after failed insert")
			}
		})
	}
}

func TestInsertSetConcurrentCross(t *testing.T) {
	for i := 0; i < 200; i++ {
		a, b := NewSharedSet("a"), NewSharedSet("b")
		var errs [2]error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = a.InsertSet("b", b)
		}()
		go func() {
			defer wg.Done()
			errs[1] = b.InsertSet("a", a)
		}()
		wg.Wait()

		if (errs[0] == nil) == (errs[1] == nil) {
			t.Fatalf("InsertSet() failed - exactly one insert should win, got %v and %v", errs[0], errs[1])
		}
		lost := errs[0]
		if lost == nil {
			lost = errs[1]
		}
		if !errors.Is(lost, stats.ErrInvalidConfiguration) {
			t.Fatalf("InsertSet() failed - expected invalid configuration, got %v", lost)
		}
		if a.Parent() != nil && b.Parent() != nil {
			t.Fatalf("InsertSet() linked %q and %q into a cycle", a.Name(), b.Name())
		}
	}
}

func TestPrintTreeOrder(t *testing.T) {
	root := NewSet("run")
	lat, _ := root.AddRunning("latency", stats.Integer)
	io, _ := root.AddSubset("io")
	reads, _ := io.AddCounter("reads")
	w, _ := io.AddWindow("writes", stats.Integer, 2)
	errs, _ := root.AddCounter("errors")

	lat.Record(5)
	reads.Increment()
	reads.Increment()
	w.Record(1)
	w.Record(2)
	w.Record(3)
	errs.Increment()

	want := `run ==> latency
    Count                   1
    Minimum                 5
    Maximum                 5
    Log Mode                3
    Mode Value              6
    Mean            +5.000000e+00
  Log Histogram
  -----------------------
    0:                 0                 0                 0                 1
run ==> io ==> reads
    Count                   2
run ==> io ==> writes
    Count                   2
    Minimum                 2
    Maximum                 3
    Log Mode                0
    Mode Value              1
    Mean            +2.500000e+00
    Std Dev         +7.071068e-01
    Variance        +5.000000e-01
  Log Histogram
  -----------------------
    0:                 1                 1                 1                 0
run ==> errors
    Count                   1
`
	var buf bytes.Buffer
	if err := root.PrintTree(&buf); err != nil {
		t.Fatalf("PrintTree() failed - unexpected error: %v", err)
	}
	if got := buf.String(); got != want {
		t.Errorf("PrintTree() failed - diff:\n%s", diff.CharacterDiff(got, want))
	}

	root.ClearTree()
	if root.Len() != 3 || io.Len() != 2 {
		t.Errorf("ClearTree() changed the structure")
	}
	for _, s := range []*stats.Stat{lat, reads, w, errs} {
		if s.Count() != 0 {
			t.Errorf("ClearTree() left %s with %d samples", s.Name(), s.Count())
		}
	}
}

func TestTraverse(t *testing.T) {
	root := NewSet("r")
	a, _ := root.AddSubset("a")
	a.AddCounter("x")
	root.AddCounter("y")

	var titles []string
	err := root.Traverse(func(title string, m Member) error {
		titles = append(titles, title)
		return nil
	})
	if err != nil {
		t.Fatalf("Traverse() failed - unexpected error: %v", err)
	}
	want := []string{"r ==> a", "r ==> a ==> x", "r ==> y"}
	if !cmp.Equal(titles, want) {
		t.Errorf("Traverse() failed - diff:\n%s", cmp.Diff(titles, want))
	}

	stop := errors.New("stop")
	visited := 0
	err = root.Traverse(func(string, Member) error {
		visited++
		return stop
	})
	if errors.Cause(err) != stop || visited != 1 {
		t.Errorf("Traverse() should stop at the first error: %v after %d", err, visited)
	}
}

func TestSharedTree(t *testing.T) {
	root := NewSharedSet("root")
	left, _ := root.AddSubset("left")
	right, _ := root.AddSubset("right")
	if left.Mode() != Shared {
		t.Fatalf("subset did not inherit the shared mode")
	}
	l, _ := left.AddRunning("l", stats.Integer)
	r, _ := right.AddHier(stats.HierConfig{Name: "r", GroupSize: 2, AutoAdvance: 5})
	if !l.Shared() {
		t.Errorf("statistic in a shared tree is not shared")
	}

	const each = 2000
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < each; i++ {
			l.Record(int64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < each; i++ {
			r.Record(int64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			var buf bytes.Buffer
			if err := root.PrintTree(&buf); err != nil {
				t.Errorf("PrintTree() failed - unexpected error: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			tmp, err := right.AddSubset("tmp")
			if err != nil {
				t.Errorf("AddSubset() failed - unexpected error: %v", err)
				return
			}
			tmp.AddCounter("c")
			if err := right.Remove("tmp"); err != nil {
				t.Errorf("Remove() failed - unexpected error: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if got := l.Count(); got != each {
		t.Errorf("incorrect left count: %d", got)
	}
	if got := r.Total().Count; got != each {
		t.Errorf("incorrect right count: %d", got)
	}
}
