package export

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"coupongen/internal/coupon"
	"coupongen/internal/model"
	"coupongen/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

// rejectingStorage fails every write after draining part of the input.
type rejectingStorage struct {
	storage.Storage
	err error
}

func (s *rejectingStorage) Write(ctx context.Context, key string, r io.Reader, contentType string) error {
	buf := make([]byte, 4)
	_, _ = r.Read(buf)
	return s.err
}

func TestIsGzip(t *testing.T) {
	assert.True(t, IsGzip("exports/run.csv.gz"))
	assert.False(t, IsGzip("exports/run.csv"))
	assert.False(t, IsGzip("gz"))
}

func TestCSVExporter_ToStorage(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "Plain CSV", key: "exports/run.csv"},
		{name: "Gzipped CSV", key: "exports/run.csv.gz"},
	}

	codes := []string{"XY0001", "XY0002", "XY0003"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStorage(t)

			rows, err := NewCSVExporter(zerolog.Nop()).ToStorage(context.Background(), store, tt.key, coupon.Codes(codes))

			require.NoError(t, err)
			assert.Equal(t, 3, rows)

			rc, err := store.Read(context.Background(), tt.key)
			require.NoError(t, err)
			defer rc.Close()

			var r io.Reader = rc
			if IsGzip(tt.key) {
				gz, err := gzip.NewReader(rc)
				require.NoError(t, err)
				defer gz.Close()
				r = gz
			}

			parsed, err := ReadCodes(r)
			require.NoError(t, err)
			assert.Equal(t, codes, parsed)
		})
	}
}

func TestCSVExporter_ToStorage_LoadsBackAsExclusions(t *testing.T) {
	store := newTestStorage(t)
	codes := []string{"RE0001", "RE0002"}

	_, err := NewCSVExporter(zerolog.Nop()).ToStorage(context.Background(), store, "issued.csv.gz", coupon.Codes(codes))
	require.NoError(t, err)

	set, err := coupon.NewStorageLoader(store, "local", zerolog.Nop()).Load(context.Background(), "issued.csv.gz")

	require.NoError(t, err)
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Contains("RE0001"))
	assert.False(t, set.Contains("Coupon"))
}

func TestCSVExporter_ToStorage_SourceErrorLeavesNoObject(t *testing.T) {
	store := newTestStorage(t)
	sourceErr := model.NewSourceExhaustedError(2, 5)
	seq := func(yield func(string, error) bool) {
		for _, code := range []string{"AAAA", "BBBB"} {
			if !yield(code, nil) {
				return
			}
		}
		yield("", sourceErr)
	}

	rows, err := NewCSVExporter(zerolog.Nop()).ToStorage(context.Background(), store, "broken.csv", seq)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceExhausted)
	assert.Equal(t, 2, rows)

	exists, err := store.Exists(context.Background(), "broken.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := os.ReadDir(store.BasePath())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestCSVExporter_ToStorage_StoreFailure(t *testing.T) {
	storeErr := errors.New("bucket unavailable")
	store := &rejectingStorage{err: storeErr}
	codes := make([]string, 5000)
	for i := range codes {
		codes[i] = "ZZZZZZZZ"
	}

	_, err := NewCSVExporter(zerolog.Nop()).ToStorage(context.Background(), store, "run.csv", coupon.Codes(codes))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExportWriteFailure)
	assert.ErrorIs(t, err, storeErr)
}

func TestCSVExporter_ToStorage_InvalidKey(t *testing.T) {
	store := newTestStorage(t)

	_, err := NewCSVExporter(zerolog.Nop()).ToStorage(context.Background(), store, "../", coupon.Codes([]string{"A"}))

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrExportWriteFailure)
	assert.Contains(t, err.Error(), "invalid key")
}
