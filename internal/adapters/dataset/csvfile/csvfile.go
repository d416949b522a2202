// Package csvfile streams text records out of a CSV dataset file
package csvfile

import (
	"encoding/csv"
	"io"
	"strings"

	perr "zeroshot/internal/platform/errors"
)

const (
	defaultTextColumn = "text"
)

// Options configures column selection
type Options struct {
	// TextColumn names the column holding the record text, default "text"
	TextColumn string

	// IDColumn optionally names a caller-supplied id column
	// empty means no id column and ids are assigned downstream by row order
	IDColumn string
}

// Row is one data row from the file
// Line is the 1-based data row number, header excluded
type Row struct {
	Line int
	ID   string
	Text string
}

// Reader streams Rows from a CSV file until io.EOF
type Reader struct {
	r    io.ReadCloser
	cr   *csv.Reader
	err  error
	line int

	// pending holds a consumed first row that turned out to be data
	// (headerless single-column mode)
	pending []string

	textIdx int
	idIdx   int // -1 when absent
}

// NewReader wraps r and resolves the text and id columns from the header.
// A single-column file without a matching header is treated as headerless,
// every row being text
func NewReader(r io.ReadCloser, opts Options) (*Reader, error) {
	textCol := opts.TextColumn
	if textCol == "" {
		textCol = defaultTextColumn
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err == io.EOF {
		return &Reader{r: r, cr: cr, err: io.EOF, textIdx: 0, idIdx: -1}, nil
	}
	if err != nil {
		_ = r.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "csv header read failed")
	}

	rd := &Reader{r: r, cr: cr, textIdx: -1, idIdx: -1}
	for i, name := range first {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case strings.ToLower(textCol):
			rd.textIdx = i
		case strings.ToLower(opts.IDColumn):
			if opts.IDColumn != "" {
				rd.idIdx = i
			}
		}
	}

	if rd.textIdx < 0 {
		if len(first) == 1 && opts.TextColumn == "" && opts.IDColumn == "" {
			// headerless single-column file; the first row is data
			rd.textIdx = 0
			rd.pending = first
			return rd, nil
		}
		_ = r.Close()
		return nil, perr.InvalidArgf("csv has no %q column (header: %s)", textCol, strings.Join(first, ","))
	}
	if opts.IDColumn != "" && rd.idIdx < 0 {
		_ = r.Close()
		return nil, perr.InvalidArgf("csv has no %q column (header: %s)", opts.IDColumn, strings.Join(first, ","))
	}
	return rd, nil
}

// Next reads the next row; returns io.EOF when done
func (rd *Reader) Next() (Row, error) {
	if rd.err != nil {
		return Row{}, rd.err
	}

	var rec []string
	if rd.pending != nil {
		rec = rd.pending
		rd.pending = nil
	} else {
		var err error
		rec, err = rd.cr.Read()
		if err == io.EOF {
			rd.err = io.EOF
			return Row{}, io.EOF
		}
		if err != nil {
			rd.err = err
			return Row{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "csv read failed")
		}
	}

	rd.line++
	row := Row{Line: rd.line, Text: rec[rd.textIdx]}
	if rd.idIdx >= 0 && rd.idIdx < len(rec) {
		row.ID = strings.TrimSpace(rec[rd.idIdx])
	}
	return row, nil
}

// Close closes the underlying file
func (rd *Reader) Close() error { return rd.r.Close() }
