package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zeroshot/internal/modkit/repokit"
	perr "zeroshot/internal/platform/errors"
	"zeroshot/internal/platform/store"
	"zeroshot/internal/services/scores/domain"
	"zeroshot/internal/services/scores/repo"
)

type fakeQuerier struct{}

func (fakeQuerier) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, nil
}
func (fakeQuerier) Query(context.Context, string, ...any) (repokit.Rows, error) { return nil, nil }
func (fakeQuerier) QueryRow(context.Context, string, ...any) repokit.Row        { return nil }

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error {
	return fn(fakeQuerier{})
}

type fakeStorage struct {
	written [][]domain.ScoreWrite
	agg     []domain.AggByLabelRow
}

func (f *fakeStorage) WriteBatch(_ context.Context, xs []domain.ScoreWrite) error {
	cp := make([]domain.ScoreWrite, len(xs))
	copy(cp, xs)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeStorage) ListByRun(
	context.Context, domain.ListInput, int,
) ([]domain.ResultRow, domain.AfterKey, error) {
	return nil, domain.AfterKey{}, nil
}

func (f *fakeStorage) AggTopLabel(context.Context, string) ([]domain.AggTopLabelRow, error) {
	return nil, nil
}

func (f *fakeStorage) AggByLabel(context.Context, string) ([]domain.AggByLabelRow, error) {
	return f.agg, nil
}

// fakeCH records inserts and can be told to fail
type fakeCH struct {
	inserts []int // row counts per insert
	fail    bool
}

func (f *fakeCH) Insert(_ context.Context, _ string, data any) error {
	if f.fail {
		return errors.New("ch down")
	}
	rows := data.([][]any)
	f.inserts = append(f.inserts, len(rows))
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("ch down")
}

func (f *fakeCH) Close() error { return nil }

func someWrites() []domain.ScoreWrite {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.ScoreWrite{
		{RunID: "r", RecordID: "a", Seq: 0, LabelKey: "economy", Score: 0.8, Rank: 0, CreatedAt: now},
		{RunID: "r", RecordID: "a", Seq: 0, LabelKey: "sports", Score: 0.2, Rank: 1, CreatedAt: now},
	}
}

func newTestService(st *fakeStorage, ch store.Clickhouse) *Service {
	return New(fakeTx{}, ch, repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage {
		return st
	}), Config{})
}

func TestWriteBatchMirrorsToClickhouse(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{}
	ch := &fakeCH{}
	svc := newTestService(st, ch)

	if err := svc.WriteBatch(t.Context(), someWrites()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(st.written) != 1 || len(st.written[0]) != 2 {
		t.Fatalf("pg writes = %+v", st.written)
	}
	if len(ch.inserts) != 1 || ch.inserts[0] != 2 {
		t.Fatalf("ch inserts = %v", ch.inserts)
	}
}

func TestWriteBatchSurvivesMirrorFailure(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{}
	svc := newTestService(st, &fakeCH{fail: true})

	if err := svc.WriteBatch(t.Context(), someWrites()); err != nil {
		t.Fatalf("mirror failure must not fail the write: %v", err)
	}
	if len(st.written) != 1 {
		t.Fatalf("pg writes = %+v", st.written)
	}
}

func TestWriteBatchRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{}
	svc := newTestService(st, nil)

	xs := someWrites()
	xs[1].Score = 1.5
	err := svc.WriteBatch(t.Context(), xs)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
	if len(st.written) != 0 {
		t.Fatal("nothing should be written on validation failure")
	}
}

func TestAggByLabelFallsBackToPostgres(t *testing.T) {
	t.Parallel()

	st := &fakeStorage{agg: []domain.AggByLabelRow{{LabelKey: "economy", MeanScore: 0.5, N: 4}}}
	svc := newTestService(st, &fakeCH{fail: true})

	out, err := svc.AggByLabel(t.Context(), "run-1")
	if err != nil {
		t.Fatalf("agg: %v", err)
	}
	if len(out) != 1 || out[0].LabelKey != "economy" {
		t.Fatalf("out = %+v", out)
	}
}
