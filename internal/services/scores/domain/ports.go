package domain

import "context"

// WriterPort persists run scores
type WriterPort interface {
	// WriteBatch writes scores idempotently per (run_id, record_id, label_key)
	WriteBatch(ctx context.Context, xs []ScoreWrite) error
}

// ReaderPort defines the read interface for scores
type ReaderPort interface {
	// ListByRun returns scored cells for a run ordered by (seq, rank)
	ListByRun(ctx context.Context, in ListInput) (rows []ResultRow, next AfterKey, err error)

	// AggTopLabel counts records per argmax label for a run
	AggTopLabel(ctx context.Context, runID string) ([]AggTopLabelRow, error)

	// AggByLabel returns per-label mean score and cardinality for a run
	AggByLabel(ctx context.Context, runID string) ([]AggByLabelRow, error)
}
