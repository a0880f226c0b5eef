package coupon

import (
	"math"
	"math/big"
	"testing"

	"coupongen/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		req           model.GenerationRequest
		reserved      int
		expectedErr   error
		expectedSpace string
		expectedAvail string
	}{
		{
			name:          "Ten characters without initials",
			req:           model.GenerationRequest{Length: 10, Count: 2},
			expectedSpace: "3656158440062976",
			expectedAvail: "3656158440062976",
		},
		{
			name:          "Count equal to space is valid",
			req:           model.GenerationRequest{Length: 3, Count: 36 * 36, Initials: "A"},
			expectedSpace: "1296",
			expectedAvail: "1296",
		},
		{
			name:        "Count one above space fails",
			req:         model.GenerationRequest{Length: 3, Count: 36*36 + 1, Initials: "A"},
			expectedErr: model.ErrTooManyRequested,
		},
		{
			name:          "Initials fill the whole code, count one",
			req:           model.GenerationRequest{Length: 4, Count: 1, Initials: "LISA"},
			expectedSpace: "1",
			expectedAvail: "1",
		},
		{
			name:        "Initials fill the whole code, count two",
			req:         model.GenerationRequest{Length: 4, Count: 2, Initials: "LISA"},
			expectedErr: model.ErrTooManyRequested,
		},
		{
			name:        "Initials longer than code",
			req:         model.GenerationRequest{Length: 3, Count: 1, Initials: "LISA"},
			expectedErr: model.ErrInitialsTooLong,
		},
		{
			name:          "Length five has 36^5 codes",
			req:           model.GenerationRequest{Length: 5, Count: 10_000_000},
			expectedSpace: "60466176",
			expectedAvail: "60466176",
		},
		{
			name:          "Zero count is valid",
			req:           model.GenerationRequest{Length: 0, Count: 0},
			expectedSpace: "1",
			expectedAvail: "1",
		},
		{
			name:          "Reserved codes shrink availability",
			req:           model.GenerationRequest{Length: 2, Count: 30, Initials: "A"},
			reserved:      6,
			expectedSpace: "36",
			expectedAvail: "30",
		},
		{
			name:        "Reserved codes exhaust availability",
			req:         model.GenerationRequest{Length: 2, Count: 31, Initials: "A"},
			reserved:    6,
			expectedErr: model.ErrTooManyRequested,
		},
		{
			name:          "Space beyond 64 bits",
			req:           model.GenerationRequest{Length: 20, Count: 1},
			expectedSpace: new(big.Int).Exp(big.NewInt(36), big.NewInt(20), nil).String(),
			expectedAvail: new(big.Int).Exp(big.NewInt(36), big.NewInt(20), nil).String(),
		},
		{
			name:          "Longest allowed code",
			req:           model.GenerationRequest{Length: MaxLength, Count: 1, Initials: "AB"},
			expectedSpace: CombinatorialSpace(MaxLength - 2).String(),
			expectedAvail: CombinatorialSpace(MaxLength - 2).String(),
		},
		{
			name:        "Length above maximum",
			req:         model.GenerationRequest{Length: MaxLength + 1, Count: 1},
			expectedErr: model.ErrInvalidRequest,
		},
		{
			name:        "Huge length rejected before any arithmetic",
			req:         model.GenerationRequest{Length: 100_000_000, Count: 1},
			expectedErr: model.ErrInvalidRequest,
		},
		{
			name:        "Negative length",
			req:         model.GenerationRequest{Length: -1, Count: 1},
			expectedErr: model.ErrInvalidRequest,
		},
		{
			name:        "Negative count",
			req:         model.GenerationRequest{Length: 4, Count: -1},
			expectedErr: model.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, err := Validate(tt.req, tt.reserved)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedSpace, validated.Space.String())
			assert.Equal(t, tt.expectedAvail, validated.Available.String())
			assert.Equal(t, tt.req.Length-len(tt.req.Initials), validated.SuffixLen)
			assert.Equal(t, tt.req, validated.GenerationRequest)
		})
	}
}

func TestValidate_ErrorMessages(t *testing.T) {
	_, err := Validate(model.GenerationRequest{Length: 3, Count: 1, Initials: "LISA"}, 0)
	require.Error(t, err)
	assert.Equal(t, "Initials length (4) cannot be greater than the total coupon length (3)", err.Error())

	_, err = Validate(model.GenerationRequest{Length: 3, Count: 37, Initials: "AB"}, 0)
	require.Error(t, err)
	assert.Equal(t, "Cannot generate 37 unique coupons with the given length and character set. Maximum possible is 36", err.Error())
}

func TestValidate_LengthLimitMessage(t *testing.T) {
	_, err := Validate(model.GenerationRequest{Length: 1000, Count: 1}, 0)
	require.Error(t, err)
	assert.Equal(t, "length 1000 exceeds the maximum of 256", err.Error())
}

func TestValidate_LargeSuffixAcceptsMaxCount(t *testing.T) {
	validated, err := Validate(model.GenerationRequest{Length: 13, Count: math.MaxInt}, math.MaxInt)

	require.NoError(t, err)
	assert.Equal(t, 1, validated.Available.Cmp(big.NewInt(math.MaxInt64)))
}

func TestValidate_Idempotent(t *testing.T) {
	requests := []model.GenerationRequest{
		{Length: 6, Count: 100, Initials: "AB"},
		{Length: 2, Count: 37, Initials: "A"},
		{Length: 1, Count: 1, Initials: "AB"},
	}

	for _, req := range requests {
		first, firstErr := Validate(req, 0)
		second, secondErr := Validate(req, 0)

		assert.Equal(t, firstErr, secondErr)
		if firstErr == nil {
			assert.Equal(t, 0, first.Space.Cmp(second.Space))
			assert.Equal(t, 0, first.Available.Cmp(second.Available))
		}
	}
}

func TestCountMatching(t *testing.T) {
	reserved := SetOf("AB12", "AB99", "ABcd", "XY12", "AB123")
	req := model.GenerationRequest{Length: 4, Count: 1, Initials: "AB"}

	assert.Equal(t, 2, CountMatching(reserved, req))
	assert.Equal(t, 0, CountMatching(nil, req))
}
