package coupon

import (
	"fmt"
	"math/big"

	"coupongen/internal/model"
)

// MaxLength is the longest code, initials included, a request may ask for.
const MaxLength = 256

// unboundedSuffixLen is the smallest suffix length whose space, 36^13,
// exceeds twice the largest int64.
const unboundedSuffixLen = 13

// ValidatedRequest is a request that passed capacity validation. It is
// immutable once returned.
type ValidatedRequest struct {
	model.GenerationRequest

	// SuffixLen is the number of random symbols after the initials.
	SuffixLen int

	// Space is CharsetLen^SuffixLen, the number of distinct codes possible.
	Space *big.Int

	// Available is Space minus the reserved codes that fall inside it.
	Available *big.Int
}

// Validate checks a request before any generation work starts. reserved is
// the number of already-issued codes inside the request's space; pass 0 when
// nothing is excluded. It has no side effects.
func Validate(req model.GenerationRequest, reserved int) (ValidatedRequest, error) {
	if req.Length < 0 {
		return ValidatedRequest{}, model.NewInvalidRequestError("length must not be negative")
	}
	if req.Count < 0 {
		return ValidatedRequest{}, model.NewInvalidRequestError("count must not be negative")
	}
	if req.Length > MaxLength {
		return ValidatedRequest{}, model.NewInvalidRequestError(
			fmt.Sprintf("length %d exceeds the maximum of %d", req.Length, MaxLength))
	}
	if len(req.Initials) > req.Length {
		return ValidatedRequest{}, model.NewInitialsTooLongError(len(req.Initials), req.Length)
	}

	suffixLen := req.Length - len(req.Initials)
	space := CombinatorialSpace(suffixLen)

	available := new(big.Int).Sub(space, big.NewInt(int64(reserved)))
	if available.Sign() < 0 {
		available.SetInt64(0)
	}

	// Past unboundedSuffixLen the space minus any int reserved count is
	// still larger than any int count.
	if suffixLen < unboundedSuffixLen && big.NewInt(int64(req.Count)).Cmp(available) > 0 {
		return ValidatedRequest{}, model.NewTooManyRequestedError(req.Count, available.String())
	}

	return ValidatedRequest{
		GenerationRequest: req,
		SuffixLen:         suffixLen,
		Space:             space,
		Available:         available,
	}, nil
}

// CombinatorialSpace returns CharsetLen^suffixLen.
func CombinatorialSpace(suffixLen int) *big.Int {
	return new(big.Int).Exp(big.NewInt(int64(CharsetLen)), big.NewInt(int64(suffixLen)), nil)
}

// CountMatching returns how many codes in set have the shape of req, that is
// how many of them a run for req could otherwise have produced.
func CountMatching(set CouponSet, req model.GenerationRequest) int {
	if set == nil {
		return 0
	}
	n := 0
	for code := range set.All() {
		if Matches(code, req.Initials, req.Length) {
			n++
		}
	}
	return n
}
