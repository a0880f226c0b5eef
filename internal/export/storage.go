package export

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"coupongen/internal/model"
	"coupongen/internal/storage"
)

// IsGzip reports whether an export key should be gzip-compressed.
func IsGzip(key string) bool {
	return strings.HasSuffix(key, ".gz")
}

// ToStorage streams an export of seq into store under key. Keys ending in
// ".gz" are gzip-compressed. The destination decides atomicity: both
// LocalStorage and S3Storage discard the object if the export fails.
func (e *CSVExporter) ToStorage(ctx context.Context, store storage.Storage, key string, seq iter.Seq2[string, error]) (int, error) {
	pr, pw := io.Pipe()

	type result struct {
		rows int
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var dst io.Writer = pw
		var gz *gzip.Writer
		if IsGzip(key) {
			gz = gzip.NewWriter(pw)
			dst = gz
		}

		rows, err := e.write(ctx, dst, seq, false)
		if err == nil && gz != nil {
			if closeErr := gz.Close(); closeErr != nil {
				err = &model.ExportError{Op: "close gzip stream", Err: closeErr}
			}
		}
		pw.CloseWithError(err)
		done <- result{rows: rows, err: err}
	}()

	contentType := ContentType
	if IsGzip(key) {
		contentType = "application/gzip"
	}

	storeErr := store.Write(ctx, key, pr, contentType)
	// Unblock the writer if the store gave up before reading everything.
	pr.Close()
	res := <-done

	if res.err != nil && !errors.Is(res.err, io.ErrClosedPipe) {
		e.logger.Error().Err(res.err).Str("key", key).Int("rows", res.rows).Msg("export to storage failed")
		return res.rows, res.err
	}
	if storeErr != nil {
		e.logger.Error().Err(storeErr).Str("key", key).Msg("storage rejected export")
		return res.rows, &model.ExportError{Op: "store export " + key, Err: storeErr}
	}
	if res.err != nil {
		return res.rows, &model.ExportError{Op: "store export " + key, Err: res.err}
	}

	e.logger.Info().Str("key", key).Int("rows", res.rows).Msg("export stored")
	return res.rows, nil
}
