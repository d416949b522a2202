// Package repo provides the records repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"

	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/services/records/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the records repository
type Storage interface {
	InsertBatch(ctx context.Context, xs []domain.Record) (int64, error)
	List(ctx context.Context, in domain.ListInput, hardLimit int) ([]domain.Record, domain.AfterKey, error)
	Count(ctx context.Context, source string) (int64, error)
}

// InsertBatch implements Storage with a multi-VALUES insert
// Idempotent per (source, seq)
func (s *pg) InsertBatch(ctx context.Context, xs []domain.Record) (int64, error) {
	if len(xs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO records
		(id, seq, text_raw, text_norm, source, ext_id, created_at) VALUES `)

	args := make([]any, 0, len(xs)*7)
	for i, r := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*7 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, r.ID, r.Seq, r.Text, r.TextNorm, r.Source, r.ExtID, r.CreatedAt)
	}
	sb.WriteString(` ON CONFLICT (source, seq) DO NOTHING`)

	tag, err := s.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// List implements Storage with keyset pagination over seq
func (s *pg) List(
	ctx context.Context, in domain.ListInput, hardLimit int,
) ([]domain.Record, domain.AfterKey, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT r.id::text, r.seq, r.text_raw, r.text_norm, r.source, r.ext_id, r.created_at
		FROM records r
		WHERE 1=1
	`)
	if in.Source != "" {
		sb.WriteString("  AND r.source = " + arg(in.Source) + "\n")
	}
	if in.After.Set {
		sb.WriteString("  AND r.seq > " + arg(in.After.Seq) + "\n")
	}
	sb.WriteString("ORDER BY r.seq\nLIMIT " + arg(hardLimit))

	rows, err := s.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0, hardLimit)
	var last domain.AfterKey
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Seq, &r.Text, &r.TextNorm, &r.Source, &r.ExtID, &r.CreatedAt); err != nil {
			return nil, domain.AfterKey{}, err
		}
		out = append(out, r)
		last = domain.AfterKey{Seq: r.Seq, Set: true}
	}
	return out, last, rows.Err()
}

// Count implements Storage
func (s *pg) Count(ctx context.Context, source string) (int64, error) {
	var n int64
	if source != "" {
		err := s.q.QueryRow(ctx, `SELECT count(*) FROM records WHERE source = $1`, source).Scan(&n)
		return n, err
	}
	err := s.q.QueryRow(ctx, `SELECT count(*) FROM records`).Scan(&n)
	return n, err
}
