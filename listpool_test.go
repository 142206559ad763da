package orb

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func intList(p *listPool[int], xs ...int) list[int] {
	return p.newListFromSlice(xs)
}

func TestListPrependRest(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 2, 3)
	l2 := l.prepend(1)

	v, ok := l2.first()
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 1)

	// rest(prepend(l, v)) is l itself: the tail is shared, not copied.
	c.Assert(l2.rest().head, qt.Equals, l.head)
	c.Assert(l2.size(), qt.Equals, 3)
	c.Assert(l.size(), qt.Equals, 2)
}

func TestListEmpty(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := p.newList()
	c.Assert(l.empty(), qt.IsTrue)
	c.Assert(l.size(), qt.Equals, 0)
	_, ok := l.first()
	c.Assert(ok, qt.IsFalse)
	c.Assert(l.rest().empty(), qt.IsTrue)
}

func TestListFromSliceOrder(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 1, 2, 3, 4)
	c.Assert(l.toSlice(), qt.DeepEquals, []int{1, 2, 3, 4})
}

func TestListRemoveAtCopiesPrefix(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 1, 2, 3, 4)
	target := l.head.next.next // the node holding 3

	out := l.removeAt(target)
	c.Assert(out.toSlice(), qt.DeepEquals, []int{1, 2, 4})
	c.Assert(l.toSlice(), qt.DeepEquals, []int{1, 2, 3, 4})

	// Prefix nodes are fresh copies, the suffix is shared.
	c.Assert(out.head, qt.Not(qt.Equals), l.head)
	c.Assert(out.head.next.next, qt.Equals, target.next)
}

func TestListRemoveAtHead(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 1, 2)
	out := l.removeAt(l.head)
	c.Assert(out.toSlice(), qt.DeepEquals, []int{2})
	c.Assert(out.head, qt.Equals, l.head.next)
}

func TestListAppendIter(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 1, 2)
	out := l.appendIter([]int{3, 4})
	c.Assert(out.toSlice(), qt.DeepEquals, []int{1, 2, 3, 4})
	c.Assert(l.toSlice(), qt.DeepEquals, []int{1, 2})
}

func TestListEquals(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()
	eq := func(a, b int) bool { return a == b }

	c.Assert(listEquals(intList(p, 1, 2), intList(p, 1, 2), eq), qt.IsTrue)
	c.Assert(listEquals(intList(p, 1, 2), intList(p, 1, 3), eq), qt.IsFalse)
	c.Assert(listEquals(intList(p, 1), intList(p, 1, 2), eq), qt.IsFalse)
	c.Assert(listEquals(p.newList(), p.newList(), eq), qt.IsTrue)
}

func TestListPoolCollection(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	kept := intList(p, 1, 2, 3)
	intList(p, 4, 5, 6, 7) // unreachable after collection

	p.retain(kept.head)
	p.gc()

	c.Assert(kept.toSlice(), qt.DeepEquals, []int{1, 2, 3})

	// Exactly the three retained nodes survive.
	var count int
	for _, s := range p.nodes.slabs {
		for i := 0; i < slabSlots; i++ {
			if s.used&(1<<uint(i)) != 0 {
				count++
			}
		}
	}
	c.Assert(count, qt.Equals, 3)
}

func TestListPoolReleaseDropsRoot(t *testing.T) {
	c := qt.New(t)
	p := newListPool[int]()

	l := intList(p, 1, 2)
	p.retain(l.head)
	p.retain(l.head)
	p.release(l.head)
	c.Assert(p.roots[l.head], qt.Equals, uint32(1))
	p.release(l.head)
	_, ok := p.roots[l.head]
	c.Assert(ok, qt.IsFalse)

	p.gc()
	var count int
	for _, s := range p.nodes.slabs {
		if s.used != 0 {
			count++
		}
	}
	c.Assert(count, qt.Equals, 0)
}
