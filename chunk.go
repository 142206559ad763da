// chunk.go: fixed-capacity slab allocation for the persistent container pools.
//
// A slab holds 32 slots of T plus two bitfields: `used` marks reserved slots,
// `mark` is scratch state for the collector. A box owns an append-only
// sequence of slabs and a free list of slabs that still have vacancies.
// Slabs are heap-allocated and never move, so a *T handed out by a box stays
// valid for the lifetime of the box.
//
// Collection protocol (driven by the pools in listpool.go / mappool.go):
//
//	box.markAllEmpty()            // clear every mark bit
//	box.markIfContains(p) ...     // mark each reachable cell
//	box.sweep()                   // destroy used-but-unmarked cells
package orb

import (
	"math/bits"
	"unsafe"
)

// slabSlots is the slot capacity of a single slab. The bitfields are u32, so
// this is also the hard upper bound for consecutive reservation.
const slabSlots = 32

type slab[T any] struct {
	slots [slabSlots]T
	used  uint32
	mark  uint32
}

func (s *slab[T]) full() bool { return s.used == ^uint32(0) }

// indexOf maps a pointer back to its slot index, or -1 when p does not point
// into this slab's slot array.
func (s *slab[T]) indexOf(p *T) int {
	base := uintptr(unsafe.Pointer(&s.slots[0]))
	ptr := uintptr(unsafe.Pointer(p))
	size := unsafe.Sizeof(s.slots[0])
	if size == 0 || ptr < base {
		return -1
	}
	off := ptr - base
	if off%size != 0 {
		return -1
	}
	i := int(off / size)
	if i >= slabSlots {
		return -1
	}
	return i
}

// box is a growable arena of slabs. destroy, when non-nil, runs on each cell
// released by sweep before the slot is zeroed.
type box[T any] struct {
	slabs   []*slab[T]
	free    []*slab[T]
	destroy func(*T)
}

func newBox[T any](destroy func(*T)) *box[T] {
	return &box[T]{destroy: destroy}
}

func (b *box[T]) grow() *slab[T] {
	s := &slab[T]{}
	b.slabs = append(b.slabs, s)
	b.free = append(b.free, s)
	return s
}

// reserveOne returns a pointer to a fresh slot. The slot content is the zero
// value of T; the caller sets it exactly once.
func (b *box[T]) reserveOne() *T {
	var s *slab[T]
	for len(b.free) > 0 {
		cand := b.free[len(b.free)-1]
		if !cand.full() {
			s = cand
			break
		}
		b.free = b.free[:len(b.free)-1]
	}
	if s == nil {
		s = b.grow()
	}
	i := bits.TrailingZeros32(^s.used)
	s.used |= 1 << uint(i)
	if s.full() {
		b.free = b.free[:len(b.free)-1]
	}
	return &s.slots[i]
}

// reserveConsecutive reserves k adjacent slots within one slab and returns
// them as a slice aliasing the slab storage. Returns nil when k is out of
// range; k == 0 yields an empty, non-allocating slice.
func (b *box[T]) reserveConsecutive(k int) []T {
	if k < 0 || k > slabSlots {
		return nil
	}
	if k == 0 {
		return []T{}
	}
	window := uint32(1)<<uint(k) - 1
	if k == slabSlots {
		window = ^uint32(0)
	}
	for _, s := range b.free {
		if start, ok := findRun(s.used, window, k); ok {
			s.used |= window << uint(start)
			if s.full() {
				b.dropFromFree(s)
			}
			return s.slots[start : start+k : start+k]
		}
	}
	s := b.grow()
	s.used |= window
	if s.full() {
		b.dropFromFree(s)
	}
	return s.slots[0:k:k]
}

// findRun slides a k-wide window across used looking for a clear run.
func findRun(used, window uint32, k int) (int, bool) {
	for start := 0; start <= slabSlots-k; start++ {
		if used&(window<<uint(start)) == 0 {
			return start, true
		}
	}
	return 0, false
}

func (b *box[T]) dropFromFree(s *slab[T]) {
	for i, cand := range b.free {
		if cand == s {
			b.free = append(b.free[:i], b.free[i+1:]...)
			return
		}
	}
}

func (b *box[T]) markAllEmpty() {
	for _, s := range b.slabs {
		s.mark = 0
	}
}

// markIfContains sets the mark bit of the cell p points to. Reports whether p
// belongs to this box. The search starts at the hinted slab index, which
// callers doing linked traversals use to avoid rescanning from slab zero.
func (b *box[T]) markIfContains(p *T, hint *int) bool {
	n := len(b.slabs)
	start := 0
	if hint != nil && *hint < n {
		start = *hint
	}
	for off := 0; off < n; off++ {
		si := (start + off) % n
		if i := b.slabs[si].indexOf(p); i >= 0 {
			b.slabs[si].mark |= 1 << uint(i)
			if hint != nil {
				*hint = si
			}
			return true
		}
	}
	return false
}

// markIfContainsRange marks the k consecutive cells starting at p.
func (b *box[T]) markIfContainsRange(p *T, k int) bool {
	if k <= 0 {
		return true
	}
	for _, s := range b.slabs {
		if i := s.indexOf(p); i >= 0 {
			window := uint32(1)<<uint(k) - 1
			if k == slabSlots {
				window = ^uint32(0)
			}
			s.mark |= window << uint(i)
			return true
		}
	}
	return false
}

// sweep destroys every used-but-unmarked cell, clears its used bit, and
// rebuilds the free list from slabs that now have at least one vacancy.
func (b *box[T]) sweep() {
	b.free = b.free[:0]
	var zero T
	for _, s := range b.slabs {
		dead := s.used &^ s.mark
		for dead != 0 {
			i := bits.TrailingZeros32(dead)
			dead &^= 1 << uint(i)
			if b.destroy != nil {
				b.destroy(&s.slots[i])
			}
			s.slots[i] = zero
			s.used &^= 1 << uint(i)
		}
		if !s.full() {
			b.free = append(b.free, s)
		}
	}
}

func (b *box[T]) reservedBytes() uintptr {
	if len(b.slabs) == 0 {
		return 0
	}
	return uintptr(len(b.slabs)) * unsafe.Sizeof(*b.slabs[0])
}

func (b *box[T]) liveBytes() uintptr {
	var t T
	live := 0
	for _, s := range b.slabs {
		live += bits.OnesCount32(s.used)
	}
	return uintptr(live) * unsafe.Sizeof(t)
}
