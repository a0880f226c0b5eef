package coupon

import (
	"context"
	"iter"
)

// CouponSet represents a read-only set of coupon codes for fast lookup.
type CouponSet interface {
	// Contains checks if a coupon code exists in the set.
	Contains(code string) bool

	// Size returns the number of coupons in the set.
	Size() int

	// All iterates the codes in unspecified order.
	All() iter.Seq[string]
}

// Loader defines the interface for loading previously issued coupon files.
type Loader interface {
	// Load reads a coupon file (one code per line, optionally gzipped and
	// optionally starting with the export header) and returns a CouponSet.
	Load(ctx context.Context, key string) (CouponSet, error)
}
