package domain

import (
	"context"
	"io"
)

// ReaderPort defines the read interface for records
type ReaderPort interface {
	// List returns up to Limit rows ordered by seq
	List(ctx context.Context, in ListInput) (rows []Record, next AfterKey, err error)

	// Count returns the number of records for a source, all sources when empty
	Count(ctx context.Context, source string) (int64, error)
}

// IngesterPort loads a dataset into the records table
type IngesterPort interface {
	// IngestCSV streams src, assigning Seq by row order
	// a row with empty text aborts the ingest naming the offending row
	IngestCSV(ctx context.Context, src io.ReadCloser, in IngestInput) (IngestReport, error)
}
