// Package repo provides the classification runs repository
package repo

import (
	"context"
	"time"

	"zeroshot/internal/modkit/repokit"
	ptime "zeroshot/internal/platform/time"
	"zeroshot/internal/services/classify/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// RunRow is one row in the runs table
type RunRow struct {
	ID         string // uuid
	Source     string
	Model      string
	Template   string
	LabelKeys  []string
	MultiLabel bool
	BatchSize  int
	OnError    string
	Status     domain.RunStatus
	Records    int64
	Scored     int64
	Failed     int64
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Storage defines the runs repository
type Storage interface {
	Create(ctx context.Context, r RunRow) error
	Finish(ctx context.Context, id string, st domain.RunStatus, records, scored, failed int64, at time.Time) error
	Get(ctx context.Context, id string) (RunRow, error)
	List(ctx context.Context, limit int) ([]RunRow, error)
}

// Create implements Storage
func (s *pg) Create(ctx context.Context, r RunRow) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO runs
			(id, source, model, template, label_keys, multi_label,
			batch_size, on_error, status, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.ID, r.Source, r.Model, r.Template, r.LabelKeys, r.MultiLabel,
		r.BatchSize, r.OnError, r.Status, r.StartedAt)
	return err
}

// Finish implements Storage
func (s *pg) Finish(
	ctx context.Context, id string, st domain.RunStatus, records, scored, failed int64, at time.Time,
) error {
	// a zero finish time writes NULL rather than the epoch
	_, err := s.q.Exec(ctx, `
		UPDATE runs
		SET status = $2, records = $3, scored = $4, failed = $5, finished_at = $6
		WHERE id = $1::uuid
	`, id, st, records, scored, failed, ptime.Ptr(at))
	return err
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, id string) (RunRow, error) {
	var r RunRow
	err := s.q.QueryRow(ctx, `
		SELECT id::text, source, model, template, label_keys, multi_label,
			batch_size, on_error, status, records, scored, failed, started_at, finished_at
		FROM runs
		WHERE id = $1::uuid
	`, id).Scan(
		&r.ID, &r.Source, &r.Model, &r.Template, &r.LabelKeys, &r.MultiLabel,
		&r.BatchSize, &r.OnError, &r.Status, &r.Records, &r.Scored, &r.Failed,
		&r.StartedAt, &r.FinishedAt,
	)
	return r, err
}

// List implements Storage, newest first
func (s *pg) List(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, source, model, template, label_keys, multi_label,
			batch_size, on_error, status, records, scored, failed, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Model, &r.Template, &r.LabelKeys, &r.MultiLabel,
			&r.BatchSize, &r.OnError, &r.Status, &r.Records, &r.Scored, &r.Failed,
			&r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
