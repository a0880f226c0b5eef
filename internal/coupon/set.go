package coupon

import (
	"iter"
	"maps"
)

// mapCouponSet implements CouponSet using a map for O(1) lookups.
// It is not safe for concurrent writes; once loaded it is read-only.
type mapCouponSet struct {
	coupons map[string]struct{}
}

// NewMapCouponSet creates a new map-based coupon set.
func NewMapCouponSet(capacity int) CouponSet {
	return newMapCouponSet(capacity)
}

func newMapCouponSet(capacity int) *mapCouponSet {
	return &mapCouponSet{
		coupons: make(map[string]struct{}, capacity),
	}
}

// Contains checks if a coupon code exists in the set.
func (s *mapCouponSet) Contains(code string) bool {
	_, exists := s.coupons[code]
	return exists
}

// Size returns the number of coupons in the set.
func (s *mapCouponSet) Size() int {
	return len(s.coupons)
}

// All iterates the codes in unspecified order.
func (s *mapCouponSet) All() iter.Seq[string] {
	return maps.Keys(s.coupons)
}

// Add adds a coupon code to the set.
func (s *mapCouponSet) Add(code string) {
	s.coupons[code] = struct{}{}
}

// SetOf builds a CouponSet from literal codes.
func SetOf(codes ...string) CouponSet {
	set := newMapCouponSet(len(codes))
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

// Union merges several sets into one. Nil sets are skipped.
func Union(sets ...CouponSet) CouponSet {
	size := 0
	for _, s := range sets {
		if s != nil {
			size += s.Size()
		}
	}
	merged := newMapCouponSet(size)
	for _, s := range sets {
		if s == nil {
			continue
		}
		for code := range s.All() {
			merged.Add(code)
		}
	}
	return merged
}

// unionView presents several read-only sets as one without copying them.
type unionView []CouponSet

// UnionView returns a CouponSet backed by sets. Nil sets are skipped. The
// underlying sets must not change while the view is in use.
func UnionView(sets ...CouponSet) CouponSet {
	view := make(unionView, 0, len(sets))
	for _, s := range sets {
		if s != nil {
			view = append(view, s)
		}
	}
	if len(view) == 1 {
		return view[0]
	}
	return view
}

func (v unionView) Contains(code string) bool {
	for _, s := range v {
		if s.Contains(code) {
			return true
		}
	}
	return false
}

// Size counts distinct codes, so it walks every set.
func (v unionView) Size() int {
	n := 0
	for range v.All() {
		n++
	}
	return n
}

// All yields each distinct code once. A code is yielded from the first set
// that holds it.
func (v unionView) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, s := range v {
			for code := range s.All() {
				if v[:i].Contains(code) {
					continue
				}
				if !yield(code) {
					return
				}
			}
		}
	}
}
