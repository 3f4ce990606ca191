package tabular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// rowReader yields string records, header first. *csv.Reader satisfies it.
type rowReader interface {
	Read() ([]string, error)
}

// decodeAll reads the header from r, checks it against mapping and decodes
// every remaining record into a T. Row numbers in errors count the header as
// row 1.
func decodeAll[T any](ctx context.Context, r rowReader, mapping []columnMapping) ([]T, error) {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty table: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	canonical, err := canonicalHeader(header, mapping)
	if err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(&trimmingReader{r: r, width: len(canonical)}, canonical...)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	var out []T
	for row := 2; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// trimmingReader trims cell whitespace and fits every record to the header
// width. Spreadsheets drop trailing empty cells and keep stray ones past the
// last titled column.
type trimmingReader struct {
	r     rowReader
	width int
}

func (t *trimmingReader) Read() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	for len(rec) < t.width {
		rec = append(rec, "")
	}
	return rec[:t.width], nil
}

// sliceReader serves pre-read rows.
type sliceReader struct {
	rows [][]string
	pos  int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
