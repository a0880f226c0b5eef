package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"coupongen/internal/storage"

	"github.com/rs/zerolog"
)

// exportHeader is skipped when it is the first line of a coupon file, so
// earlier exports can be loaded as exclusion lists.
const exportHeader = "Coupon"

// storageLoader implements Loader on top of a storage.Storage.
type storageLoader struct {
	store  storage.Storage
	name   string
	logger zerolog.Logger
}

// NewStorageLoader creates a loader reading coupon files from store.
// name identifies the store in logs ("local", "s3").
func NewStorageLoader(store storage.Storage, name string, logger zerolog.Logger) Loader {
	return &storageLoader{
		store:  store,
		name:   name,
		logger: logger.With().Str("component", "coupon-loader").Str("store", name).Logger(),
	}
}

// Load reads a coupon file and returns a CouponSet. Files whose key ends in
// ".gz" are decompressed.
func (l *storageLoader) Load(ctx context.Context, key string) (CouponSet, error) {
	l.logger.Info().Str("key", key).Msg("loading coupon file")

	rc, err := l.store.Read(ctx, key)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to open coupon file")
		return nil, fmt.Errorf("failed to open coupon file %s: %w", key, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if strings.HasSuffix(key, ".gz") {
		gzipReader, err := gzip.NewReader(rc)
		if err != nil {
			l.logger.Error().Err(err).Str("key", key).Msg("failed to create gzip reader")
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", key, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	set, err := readCouponSet(ctx, r)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("error reading coupon file")
		return nil, fmt.Errorf("error reading coupon file %s: %w", key, err)
	}

	l.logger.Info().
		Str("key", key).
		Int("coupons_loaded", set.Size()).
		Msg("coupon file loaded successfully")

	return set, nil
}

// readCouponSet reads one code per line. Blank lines are skipped and
// surrounding whitespace trimmed.
func readCouponSet(ctx context.Context, r io.Reader) (*mapCouponSet, error) {
	set := newMapCouponSet(1024)

	scanner := bufio.NewScanner(r)
	// Set larger buffer for better performance with big files
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		// Check context cancellation periodically
		if lineCount%1_000_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lineCount++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || (lineCount == 1 && line == exportHeader) {
			continue
		}
		set.Add(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// fallbackLoader tries a primary loader first, then falls back to a secondary one.
type fallbackLoader struct {
	primary   Loader
	secondary Loader
	logger    zerolog.Logger
}

// NewFallbackLoader creates a loader that tries primary (typically S3) first,
// then falls back to secondary (typically the local file system).
// If primary is nil, secondary is returned as is.
func NewFallbackLoader(primary, secondary Loader, logger zerolog.Logger) Loader {
	if primary == nil {
		return secondary
	}
	return &fallbackLoader{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-loader").Logger(),
	}
}

// Load attempts the primary loader, then falls back to the secondary.
func (l *fallbackLoader) Load(ctx context.Context, key string) (CouponSet, error) {
	set, err := l.primary.Load(ctx, key)
	if err == nil {
		return set, nil
	}

	l.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("failed to load from primary store, falling back")

	return l.secondary.Load(ctx, key)
}

// LoadAll loads every key concurrently and merges the results into one set.
// The first failing key, in key order, aborts the load.
func LoadAll(ctx context.Context, loader Loader, keys []string) (CouponSet, error) {
	type loadResult struct {
		index int
		set   CouponSet
		err   error
	}

	resultChan := make(chan loadResult, len(keys))
	var wg sync.WaitGroup

	for i, key := range keys {
		wg.Add(1)
		go func(index int, key string) {
			defer wg.Done()

			set, err := loader.Load(ctx, key)
			resultChan <- loadResult{
				index: index,
				set:   set,
				err:   err,
			}
		}(i, key)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in order
	results := make([]loadResult, len(keys))
	for result := range resultChan {
		results[result.index] = result
	}

	sets := make([]CouponSet, 0, len(keys))
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load coupon file %s: %w", keys[i], result.err)
		}
		sets = append(sets, result.set)
	}

	return Union(sets...), nil
}
