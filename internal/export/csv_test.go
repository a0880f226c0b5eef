package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"coupongen/internal/coupon"
	"coupongen/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter accepts limit bytes and then fails every write.
type failingWriter struct {
	limit   int
	written int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, errDiskFull
	}
	w.written += len(p)
	return len(p), nil
}

func TestCSVExporter_WriteCodes(t *testing.T) {
	exporter := NewCSVExporter(zerolog.Nop())
	codes := []string{"AB12", "AB34", "AB56"}

	var buf bytes.Buffer
	err := exporter.WriteCodes(&buf, codes)

	require.NoError(t, err)
	assert.Equal(t, "Coupon\nAB12\nAB34\nAB56\n", buf.String())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, len(codes)+1)

	parsed, err := ReadCodes(&buf)
	require.NoError(t, err)
	assert.Equal(t, codes, parsed)
}

func TestCSVExporter_WriteCodes_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(zerolog.Nop()).WriteCodes(&buf, nil)

	require.NoError(t, err)
	assert.Equal(t, "Coupon\n", buf.String())

	parsed, err := ReadCodes(&buf)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestCSVExporter_WriteCodes_QuotesSpecialInitials(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(zerolog.Nop()).WriteCodes(&buf, []string{"A,B1", `Q"X`})

	require.NoError(t, err)
	assert.Equal(t, "Coupon\n\"A,B1\"\n\"Q\"\"X\"\n", buf.String())

	parsed, err := ReadCodes(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"A,B1", `Q"X`}, parsed)
}

func TestCSVExporter_WriteCodes_SinkFailure(t *testing.T) {
	codes := make([]string, 10_000)
	for i := range codes {
		codes[i] = "ABCDEFGH"
	}

	err := NewCSVExporter(zerolog.Nop()).WriteCodes(&failingWriter{limit: 100}, codes)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExportWriteFailure)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestCSVExporter_GeneratedBatchRoundTrip(t *testing.T) {
	engine := coupon.NewEngine(&coupon.EngineConfig{Workers: 8}, zerolog.Nop())
	batch, err := engine.Generate(context.Background(), model.GenerationRequest{Length: 10, Count: 1000})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(zerolog.Nop()).WriteCodes(&buf, batch.Codes))
	assert.Equal(t, len(batch.Codes)+1, strings.Count(buf.String(), "\n"))

	parsed, err := ReadCodes(&buf)
	require.NoError(t, err)
	assert.ElementsMatch(t, batch.Codes, parsed)
}

func TestCSVExporter_WriteStream(t *testing.T) {
	engine := coupon.NewEngine(&coupon.EngineConfig{Workers: 1}, zerolog.Nop())
	req := model.GenerationRequest{Length: 7, Count: 250, Initials: "ST"}
	stream, err := engine.Stream(context.Background(), req)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows, err := NewCSVExporter(zerolog.Nop()).WriteStream(context.Background(), &buf, stream.All())

	require.NoError(t, err)
	assert.Equal(t, 250, rows)

	parsed, err := ReadCodes(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 250)

	seen := make(map[string]bool)
	for _, code := range parsed {
		assert.False(t, seen[code], "duplicate %s", code)
		seen[code] = true
		assert.True(t, coupon.Matches(code, "ST", 7), "code %s", code)
	}
}

func TestCSVExporter_WriteStream_FlushesEachRow(t *testing.T) {
	var buf bytes.Buffer
	seq := func(yield func(string, error) bool) {
		if !yield("FIRST1", nil) {
			return
		}
		// The first row must already be in the sink when the second is requested.
		assert.Equal(t, "Coupon\nFIRST1\n", buf.String())
		yield("SECOND", nil)
	}

	rows, err := NewCSVExporter(zerolog.Nop()).WriteStream(context.Background(), &buf, seq)

	require.NoError(t, err)
	assert.Equal(t, 2, rows)
}

func TestCSVExporter_WriteStream_SourceErrorPassesThrough(t *testing.T) {
	sourceErr := model.NewSourceExhaustedError(1, 3)
	seq := func(yield func(string, error) bool) {
		if !yield("ONLY01", nil) {
			return
		}
		yield("", sourceErr)
	}

	var buf bytes.Buffer
	rows, err := NewCSVExporter(zerolog.Nop()).WriteStream(context.Background(), &buf, seq)

	require.Error(t, err)
	assert.Same(t, sourceErr, err)
	assert.NotErrorIs(t, err, model.ErrExportWriteFailure)
	assert.Equal(t, 1, rows)
	assert.Equal(t, "Coupon\nONLY01\n", buf.String())
}

func TestCSVExporter_WriteStream_SinkFailure(t *testing.T) {
	rows, err := NewCSVExporter(zerolog.Nop()).WriteStream(context.Background(), &failingWriter{limit: 20}, coupon.Codes([]string{"AAAAAA", "BBBBBB", "CCCCCC", "DDDDDD"}))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExportWriteFailure)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 1, rows)
}

func TestCSVExporter_WriteStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	rows, err := NewCSVExporter(zerolog.Nop()).WriteStream(ctx, &buf, coupon.Codes([]string{"AAAA"}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rows)
	assert.Equal(t, "Coupon\n", buf.String())
}

func TestReadCodes_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{name: "Empty input", input: "", errContains: "export is empty"},
		{name: "Wrong header", input: "Code\nAB12\n", errContains: "unexpected export header"},
		{name: "Extra column", input: "Coupon\nAB12,CD34\n", errContains: "failed to read export row 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, err := ReadCodes(strings.NewReader(tt.input))

			require.Error(t, err)
			assert.Nil(t, codes)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
