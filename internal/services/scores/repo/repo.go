// Package repo provides the scores repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"

	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/services/scores/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the scores repository
type Storage interface {
	WriteBatch(ctx context.Context, xs []domain.ScoreWrite) error
	ListByRun(ctx context.Context, in domain.ListInput, hardLimit int) ([]domain.ResultRow, domain.AfterKey, error)
	AggTopLabel(ctx context.Context, runID string) ([]domain.AggTopLabelRow, error)
	AggByLabel(ctx context.Context, runID string) ([]domain.AggByLabelRow, error)
}

// WriteBatch implements Storage
func (s *pg) WriteBatch(ctx context.Context, xs []domain.ScoreWrite) error {
	if len(xs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO scores
		(run_id, record_id, seq, label_key, score, rank, created_at) VALUES `)

	args := make([]any, 0, len(xs)*7)
	for i, x := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*7 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args,
			x.RunID, x.RecordID, x.Seq, x.LabelKey, x.Score, x.Rank, x.CreatedAt)
	}
	// Idempotent for re-runs of the same (run, record, label)
	sb.WriteString(` ON CONFLICT (run_id, record_id, label_key) DO NOTHING`)

	_, err := s.q.Exec(ctx, sb.String(), args...)
	return err
}

// ListByRun implements Storage with keyset pagination over (seq, label_key)
func (s *pg) ListByRun(
	ctx context.Context, in domain.ListInput, hardLimit int,
) ([]domain.ResultRow, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT s.seq, r.text_raw, s.label_key, s.score, s.rank
		FROM scores s
		JOIN records r ON r.id = s.record_id
		WHERE s.run_id = ` + arg(in.RunID) + `::uuid
	`)
	if in.After.Set {
		sb.WriteString("  AND (s.seq, s.label_key) > (" +
			arg(in.After.Seq) + ", " + arg(in.After.LabelKey) + ")\n")
	}
	sb.WriteString("ORDER BY s.seq, s.label_key\nLIMIT " + arg(hardLimit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	defer rows.Close()

	out := make([]domain.ResultRow, 0, hardLimit)
	var last domain.AfterKey
	for rows.Next() {
		var r domain.ResultRow
		if err := rows.Scan(&r.Seq, &r.Text, &r.LabelKey, &r.Score, &r.Rank); err != nil {
			return nil, domain.AfterKey{}, err
		}
		out = append(out, r)
		last = domain.AfterKey{Seq: r.Seq, LabelKey: r.LabelKey, Set: true}
	}
	return out, last, rows.Err()
}

// AggTopLabel implements Storage; rank 0 is the argmax label per record
func (s *pg) AggTopLabel(ctx context.Context, runID string) ([]domain.AggTopLabelRow, error) {
	rows, err := s.q.Query(ctx, `
		SELECT s.label_key, count(*) AS records
		FROM scores s
		WHERE s.run_id = $1::uuid AND s.rank = 0
		GROUP BY s.label_key
		ORDER BY records DESC, s.label_key
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggTopLabelRow
	for rows.Next() {
		var r domain.AggTopLabelRow
		if err := rows.Scan(&r.LabelKey, &r.Records); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AggByLabel implements Storage
func (s *pg) AggByLabel(ctx context.Context, runID string) ([]domain.AggByLabelRow, error) {
	rows, err := s.q.Query(ctx, `
		SELECT s.label_key, avg(s.score) AS mean_score, count(*) AS n
		FROM scores s
		WHERE s.run_id = $1::uuid
		GROUP BY s.label_key
		ORDER BY s.label_key
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggByLabelRow
	for rows.Next() {
		var r domain.AggByLabelRow
		if err := rows.Scan(&r.LabelKey, &r.MeanScore, &r.N); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
