// Package tree builds and queries the time-indexed virtual directory tree:
// a four-level year/MM/DD/HH-MM hierarchy whose leaves are minute-grained
// file nodes, materialized once at mount time and never mutated after.
package tree

import (
	"time"
)

// RootInode is the fixed inode number of the tree root, per invariant I1.
const RootInode uint64 = 1

// Bounds is an ordered pair of UTC instants with millisecond resolution.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Kind distinguishes directory nodes from minute-granularity file nodes.
type Kind int

const (
	Directory Kind = iota
	File
)

// Node is an immutable view into the tree's arena. Callers never mutate a
// Node directly; the tree itself is built once and shared read-only.
type Node struct {
	Inode  uint64
	Name   string
	Kind   Kind
	Bounds Bounds // only meaningful when Kind == File

	parent   int // arena index, -1 for root
	children []childRef
}

type childRef struct {
	name string
	idx  int
}

// Tree is an arena of nodes with stable integer keys (slot-map style) plus
// two auxiliary indices: inode -> arena index, and per-directory name ->
// child arena index. This avoids cyclic parent/child ownership while
// keeping parent-pointer traversal O(1). It is immutable after Build and
// freely shareable across goroutines.
type Tree struct {
	nodes      []Node
	byInode    map[uint64]int
	nextInode  uint64
}

// Build constructs the full year/month/day/HH-MM hierarchy touching the
// half-open... well, closed range [start, end] at year granularity: every
// year from start.Year() through end.Year() is built in full, months 1..12,
// days 1..31 (invalid civil dates silently skipped), hours 0..23, minutes
// 0..59. The tree is not pruned to [start, end]; it spans whole years.
func Build(start, end time.Time) *Tree {
	start = start.UTC()
	end = end.UTC()

	t := &Tree{
		byInode:   make(map[uint64]int),
		nextInode: RootInode,
	}

	root := t.newNode("/", Directory, Bounds{}, -1)
	t.nodes[root].Name = "/"

	for year := start.Year(); year <= end.Year(); year++ {
		yearIdx := t.newNode(zeroPad(year, 4), Directory, Bounds{}, root)
		t.addChild(root, yearIdx)

		for month := 1; month <= 12; month++ {
			monthIdx := t.newNode(zeroPad(month, 2), Directory, Bounds{}, yearIdx)
			t.addChild(yearIdx, monthIdx)

			for day := 1; day <= 31; day++ {
				if !validCivilDate(year, month, day) {
					continue
				}
				dayIdx := t.newNode(zeroPad(day, 2), Directory, Bounds{}, monthIdx)
				t.addChild(monthIdx, dayIdx)

				for hour := 0; hour < 24; hour++ {
					for minute := 0; minute < 60; minute++ {
						minStart := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
						minEnd := minStart.Add(time.Minute - time.Millisecond)
						name := zeroPad(hour, 2) + "-" + zeroPad(minute, 2)
						fileIdx := t.newNode(name, File, Bounds{Start: minStart, End: minEnd}, dayIdx)
						t.addChild(dayIdx, fileIdx)
					}
				}
			}
		}
	}

	return t
}

func validCivilDate(year, month, day int) bool {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}

func zeroPad(v, width int) string {
	s := itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (t *Tree) newNode(name string, kind Kind, bounds Bounds, parent int) int {
	idx := len(t.nodes)
	inode := t.nextInode
	t.nextInode++
	t.nodes = append(t.nodes, Node{
		Inode:  inode,
		Name:   name,
		Kind:   kind,
		Bounds: bounds,
		parent: parent,
	})
	t.byInode[inode] = idx
	return idx
}

func (t *Tree) addChild(parentIdx, childIdx int) {
	t.nodes[parentIdx].children = append(t.nodes[parentIdx].children, childRef{
		name: t.nodes[childIdx].Name,
		idx:  childIdx,
	})
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[t.byInode[RootInode]]
}

// GetByInode resolves an inode to its node. The second return is false if
// the inode is unknown.
func (t *Tree) GetByInode(ino uint64) (Node, bool) {
	idx, ok := t.byInode[ino]
	if !ok {
		return Node{}, false
	}
	return t.nodes[idx], true
}

// GetChild resolves (parentInode, name) to the named child, in a directory.
func (t *Tree) GetChild(parentIno uint64, name string) (Node, bool) {
	idx, ok := t.byInode[parentIno]
	if !ok {
		return Node{}, false
	}
	for _, c := range t.nodes[idx].children {
		if c.name == name {
			return t.nodes[c.idx], true
		}
	}
	return Node{}, false
}

// ListChildren returns a directory's children in name-ascending order.
// The children slice is built name-sorted at construction time (each
// level's loop already emits names in ascending zero-padded order), so no
// sort is needed here.
func (t *Tree) ListChildren(dirIno uint64) ([]Node, bool) {
	idx, ok := t.byInode[dirIno]
	if !ok {
		return nil, false
	}
	n := t.nodes[idx]
	if n.Kind != Directory {
		return nil, false
	}
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = t.nodes[c.idx]
	}
	return out, true
}

// ParentForLs returns the node `..` should resolve to for dirIno: the
// node's parent, or the node itself if it is the root (so `..` in `/`
// resolves back to `/`).
func (t *Tree) ParentForLs(dirIno uint64) (Node, bool) {
	idx, ok := t.byInode[dirIno]
	if !ok {
		return Node{}, false
	}
	n := t.nodes[idx]
	if n.parent == -1 {
		return n, true
	}
	return t.nodes[n.parent], true
}
