package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"

	"coupongen/internal/model"

	"github.com/rs/zerolog"
)

const (
	// Header is the single column name written as the first row.
	Header = "Coupon"

	// ContentType is the MIME type of an export.
	ContentType = "text/csv"
)

// CSVExporter writes coupon codes as a one-column CSV table.
type CSVExporter struct {
	logger zerolog.Logger
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(logger zerolog.Logger) *CSVExporter {
	return &CSVExporter{
		logger: logger.With().Str("component", "csv-exporter").Logger(),
	}
}

// WriteCodes writes a materialized batch: the header, then one row per code,
// flushed once at the end. Partial output is left in w on failure.
func (e *CSVExporter) WriteCodes(w io.Writer, codes []string) error {
	n, err := e.write(context.Background(), w, func(yield func(string, error) bool) {
		for _, code := range codes {
			if !yield(code, nil) {
				return
			}
		}
	}, false)
	if err != nil {
		return err
	}

	e.logger.Debug().Int("rows", n).Msg("batch exported")
	return nil
}

// WriteStream pulls codes from seq one at a time and writes each row as soon
// as it arrives, so memory use does not grow with the number of codes. An
// error yielded by seq aborts the export and is returned unchanged.
func (e *CSVExporter) WriteStream(ctx context.Context, w io.Writer, seq iter.Seq2[string, error]) (int, error) {
	n, err := e.write(ctx, w, seq, true)
	if err != nil {
		e.logger.Warn().Err(err).Int("rows", n).Msg("stream export aborted")
		return n, err
	}

	e.logger.Debug().Int("rows", n).Msg("stream exported")
	return n, nil
}

func (e *CSVExporter) write(ctx context.Context, w io.Writer, seq iter.Seq2[string, error], flushEachRow bool) (int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{Header}); err != nil {
		return 0, &model.ExportError{Op: "write header", Err: err}
	}

	rows := 0
	record := make([]string, 1)
	for code, err := range seq {
		if err != nil {
			writer.Flush()
			return rows, err
		}
		if err := ctx.Err(); err != nil {
			writer.Flush()
			return rows, err
		}

		record[0] = code
		if err := writer.Write(record); err != nil {
			return rows, &model.ExportError{Op: "write coupon row", Err: err}
		}
		if flushEachRow {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return rows, &model.ExportError{Op: "flush coupon row", Err: err}
			}
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, &model.ExportError{Op: "flush export", Err: err}
	}

	return rows, nil
}

// ReadCodes parses an export back into its codes, checking the header row.
func ReadCodes(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("export is empty")
		}
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}
	if header[0] != Header {
		return nil, fmt.Errorf("unexpected export header %q", header[0])
	}

	var codes []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return codes, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export row %d: %w", len(codes)+1, err)
		}
		codes = append(codes, record[0])
	}
}
