package coupon

import (
	"slices"
	"testing"

	"coupongen/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMapCouponSet_Add_And_Contains(t *testing.T) {
	set := newMapCouponSet(10)

	set.Add("TESTCODE1")
	assert.True(t, set.Contains("TESTCODE1"))
	assert.False(t, set.Contains("NOTEXIST"))

	set.Add("TESTCODE2")
	set.Add("TESTCODE3")
	assert.True(t, set.Contains("TESTCODE2"))
	assert.True(t, set.Contains("TESTCODE3"))

	// Duplicate addition should not increase size
	set.Add("TESTCODE1")
	assert.Equal(t, 3, set.Size())
}

func TestMapCouponSet_Contains(t *testing.T) {
	set := SetOf("VALIDCODE", "TESTPROMO", "DISCOUNT10")

	tests := []struct {
		name     string
		code     string
		expected bool
	}{
		{name: "Code exists", code: "VALIDCODE", expected: true},
		{name: "Code does not exist", code: "INVALID", expected: false},
		{name: "Empty string", code: "", expected: false},
		{name: "Case sensitive - different case", code: "testpromo", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, set.Contains(tt.code))
		})
	}
}

func TestMapCouponSet_All(t *testing.T) {
	set := SetOf("C", "A", "B")

	codes := slices.Sorted(set.All())
	assert.Equal(t, []string{"A", "B", "C"}, codes)
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name     string
		sets     []CouponSet
		expected []string
	}{
		{
			name:     "No sets",
			sets:     nil,
			expected: nil,
		},
		{
			name:     "Overlapping sets",
			sets:     []CouponSet{SetOf("A", "B"), SetOf("B", "C")},
			expected: []string{"A", "B", "C"},
		},
		{
			name:     "Nil sets are skipped",
			sets:     []CouponSet{nil, SetOf("A"), nil},
			expected: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Union(tt.sets...)
			assert.Equal(t, len(tt.expected), merged.Size())
			assert.Equal(t, tt.expected, slices.Sorted(merged.All()))
		})
	}
}

func TestUnionView(t *testing.T) {
	tests := []struct {
		name     string
		sets     []CouponSet
		expected []string
	}{
		{
			name:     "No sets",
			sets:     nil,
			expected: nil,
		},
		{
			name:     "Overlapping sets yield each code once",
			sets:     []CouponSet{SetOf("A", "B"), SetOf("B", "C"), SetOf("C", "A", "D")},
			expected: []string{"A", "B", "C", "D"},
		},
		{
			name:     "Nil sets are skipped",
			sets:     []CouponSet{nil, SetOf("A"), nil, SetOf("B")},
			expected: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := UnionView(tt.sets...)
			assert.Equal(t, len(tt.expected), view.Size())
			assert.Equal(t, tt.expected, slices.Sorted(view.All()))
			for _, code := range tt.expected {
				assert.True(t, view.Contains(code), code)
			}
			assert.False(t, view.Contains("Z"))
		})
	}
}

func TestUnionView_SharesUnderlyingSets(t *testing.T) {
	startup := newMapCouponSet(4)
	startup.Add("AB1")

	single := UnionView(nil, startup)
	assert.Same(t, startup, single.(*mapCouponSet))

	view := UnionView(startup, SetOf("AB2"))
	startup.Add("AB3")
	assert.True(t, view.Contains("AB3"))
}

func TestUnionView_CountMatchingCountsOverlapOnce(t *testing.T) {
	view := UnionView(SetOf("AB1", "AB2", "XY1"), SetOf("AB2", "AB3"))

	n := CountMatching(view, model.GenerationRequest{Length: 3, Initials: "AB"})

	assert.Equal(t, 3, n)
}
