package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"zeroshot/internal/modkit/repokit"
	perr "zeroshot/internal/platform/errors"
	kit "zeroshot/internal/platform/testkit"
	"zeroshot/internal/services/classify/domain"
	"zeroshot/internal/services/classify/repo"
	recdom "zeroshot/internal/services/records/domain"
	scoredom "zeroshot/internal/services/scores/domain"
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

// fakeRuns captures the run row lifecycle
type fakeRuns struct {
	created  []repo.RunRow
	finished []repo.RunRow
}

func (f *fakeRuns) Create(_ context.Context, r repo.RunRow) error {
	f.created = append(f.created, r)
	return nil
}

func (f *fakeRuns) Finish(
	_ context.Context, id string, st domain.RunStatus, records, scored, failed int64, at time.Time,
) error {
	f.finished = append(f.finished, repo.RunRow{
		ID: id, Status: st, Records: records, Scored: scored, Failed: failed, FinishedAt: &at,
	})
	return nil
}

func (f *fakeRuns) Get(context.Context, string) (repo.RunRow, error) { return repo.RunRow{}, nil }
func (f *fakeRuns) List(context.Context, int) ([]repo.RunRow, error) { return nil, nil }

// fakeRecords pages stored records by seq like the real repo
type fakeRecords struct {
	recs []recdom.Record
}

func (f *fakeRecords) List(
	_ context.Context, in recdom.ListInput,
) ([]recdom.Record, recdom.AfterKey, error) {
	var out []recdom.Record
	for _, r := range f.recs {
		if in.After.Set && r.Seq <= in.After.Seq {
			continue
		}
		out = append(out, r)
		if len(out) >= in.Limit {
			break
		}
	}
	var next recdom.AfterKey
	if len(out) > 0 {
		next = recdom.AfterKey{Seq: out[len(out)-1].Seq, Set: true}
	}
	return out, next, nil
}

func (f *fakeRecords) Count(context.Context, string) (int64, error) {
	return int64(len(f.recs)), nil
}

// fakeScores collects writes in arrival order
type fakeScores struct {
	writes []scoredom.ScoreWrite
}

func (f *fakeScores) WriteBatch(_ context.Context, xs []scoredom.ScoreWrite) error {
	f.writes = append(f.writes, xs...)
	return nil
}

// fakeClassifier scores deterministically from the text alone so batch
// partitioning can never change a record's scores
type fakeClassifier struct {
	calls    int
	failText map[string]bool
	onCall   func()
}

func (f *fakeClassifier) Model() string { return "fake/mnli" }

func (f *fakeClassifier) Classify(
	_ context.Context, text string, candidates []string, _ string, _ bool,
) ([]domain.Scored, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.failText[text] {
		return nil, perr.ModelUnavailablef("model fake/mnli unavailable")
	}
	n := len(candidates)
	total := 0.0
	weights := make([]float64, n)
	for i := range candidates {
		weights[i] = float64(n-i) + float64(len(text)%3)
		total += weights[i]
	}
	out := make([]domain.Scored, n)
	for i, c := range candidates {
		out[i] = domain.Scored{Label: c, Score: weights[i] / total}
	}
	return out, nil
}

func someRecords(n int) []recdom.Record {
	recs := make([]recdom.Record, n)
	for i := range recs {
		recs[i] = recdom.Record{
			ID:   fmt.Sprintf("id-%d", i),
			Seq:  int64(i),
			Text: fmt.Sprintf("record number %d", i),
		}
	}
	return recs
}

func newTestService(recs *fakeRecords, sc *fakeScores, clf *fakeClassifier, cfg Config) (*Service, *fakeRuns) {
	runs := &fakeRuns{}
	svc := New(recs, sc, clf, fakeTx{}, repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage {
		return runs
	}), cfg)
	return svc, runs
}

var testLabels = []string{"economy", "sports", "politics"}

func TestRunScoresEveryRecordInOrder(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(5)}
	sc := &fakeScores{}
	svc, runs := newTestService(recs, sc, &fakeClassifier{}, Config{})

	rep, err := svc.Run(t.Context(), domain.RunInput{Labels: testLabels})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Status != domain.RunSucceeded || rep.Records != 5 || rep.Scored != 5 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sc.writes) != 5*3 {
		t.Fatalf("writes = %d", len(sc.writes))
	}

	// writes arrive grouped per record, records in input order
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			w := sc.writes[i*3+j]
			if w.Seq != int64(i) {
				t.Fatalf("write %d seq = %d, want %d", i*3+j, w.Seq, i)
			}
			if w.Rank != j {
				t.Fatalf("write %d rank = %d, want %d", i*3+j, w.Rank, j)
			}
			if w.RunID != rep.RunID {
				t.Fatalf("write run id = %q", w.RunID)
			}
		}
	}

	// run row created with the derived label keys and model id
	if len(runs.created) != 1 {
		t.Fatalf("created runs = %d", len(runs.created))
	}
	row := runs.created[0]
	if row.Model != "fake/mnli" || row.Status != domain.RunRunning {
		t.Fatalf("run row = %+v", row)
	}
	if len(row.LabelKeys) != 3 || row.LabelKeys[0] != "economy" {
		t.Fatalf("label keys = %v", row.LabelKeys)
	}
}

func TestRunBatchSizeNeverChangesScores(t *testing.T) {
	t.Parallel()

	run := func(batch int) map[string]float64 {
		recs := &fakeRecords{recs: someRecords(10)}
		sc := &fakeScores{}
		svc, _ := newTestService(recs, sc, &fakeClassifier{}, Config{})
		rep, err := svc.Run(t.Context(), domain.RunInput{Labels: testLabels, BatchSize: batch})
		if err != nil {
			t.Fatalf("run batch=%d: %v", batch, err)
		}
		if rep.Scored != 10 {
			t.Fatalf("batch=%d scored = %d", batch, rep.Scored)
		}
		got := make(map[string]float64, len(sc.writes))
		for _, w := range sc.writes {
			got[fmt.Sprintf("%d/%s", w.Seq, w.LabelKey)] = w.Score
		}
		return got
	}

	one, sixteen := run(1), run(16)
	if len(one) != len(sixteen) {
		t.Fatalf("cell counts differ: %d vs %d", len(one), len(sixteen))
	}
	for k, v := range one {
		kit.InDelta(t, sixteen[k], v, 1e-12)
	}
}

func TestRunFailFastAbortsAndNamesSeq(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(6)}
	sc := &fakeScores{}
	clf := &fakeClassifier{failText: map[string]bool{"record number 2": true}}
	svc, _ := newTestService(recs, sc, clf, Config{})

	rep, err := svc.Run(t.Context(), domain.RunInput{
		Labels: testLabels, BatchSize: 2, OnError: domain.OnErrorFailFast,
	})
	if err == nil {
		t.Fatal("want error")
	}
	kit.MustContain(t, err.Error(), "seq 2")
	if seq, ok := perr.SeqOf(err); !ok || seq != 2 {
		t.Fatalf("seq of err = %d, %v", seq, ok)
	}
	if rep.Status != domain.RunFailed {
		t.Fatalf("status = %s", rep.Status)
	}
	// the first full batch (seq 0,1) landed; the aborted batch is discarded
	if len(sc.writes) != 2*3 {
		t.Fatalf("writes = %d", len(sc.writes))
	}
	// nothing after the failure was attempted
	if clf.calls != 3 {
		t.Fatalf("classifier calls = %d", clf.calls)
	}
}

func TestRunContinuePolicyCollectsFailures(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(6)}
	sc := &fakeScores{}
	clf := &fakeClassifier{failText: map[string]bool{
		"record number 1": true,
		"record number 4": true,
	}}
	svc, _ := newTestService(recs, sc, clf, Config{})

	rep, err := svc.Run(t.Context(), domain.RunInput{
		Labels: testLabels, BatchSize: 3, OnError: domain.OnErrorContinue,
	})
	if err != nil {
		t.Fatalf("continue policy must not fail the run: %v", err)
	}
	if rep.Status != domain.RunPartial {
		t.Fatalf("status = %s", rep.Status)
	}
	if rep.Records != 6 || rep.Scored != 4 || len(rep.Failures) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Failures[0].Seq != 1 || rep.Failures[1].Seq != 4 {
		t.Fatalf("failures = %+v", rep.Failures)
	}
	if len(sc.writes) != 4*3 {
		t.Fatalf("writes = %d", len(sc.writes))
	}
}

func TestRunCancellationBetweenBatches(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(8)}
	sc := &fakeScores{}

	ctx, cancel := context.WithCancel(t.Context())
	clf := &fakeClassifier{onCall: cancel} // canceled during the very first record
	svc, _ := newTestService(recs, sc, clf, Config{})

	rep, err := svc.Run(ctx, domain.RunInput{Labels: testLabels, BatchSize: 2})
	if err != nil {
		t.Fatalf("cancellation is an outcome, not an error: %v", err)
	}
	if rep.Status != domain.RunCanceled || !rep.Incomplete {
		t.Fatalf("report = %+v", rep)
	}
	// the in-flight batch finishes; the next batch boundary observes the cancel
	if rep.Records != 2 || rep.Scored != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sc.writes) != 2*3 {
		t.Fatalf("writes = %d", len(sc.writes))
	}
}

// cancelAwareClassifier refuses work once its ctx is done, like the real
// inference client does inside its retry loop
type cancelAwareClassifier struct {
	fakeClassifier
}

func (f *cancelAwareClassifier) Classify(
	ctx context.Context, text string, candidates []string, tpl string, multi bool,
) ([]domain.Scored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fakeClassifier.Classify(ctx, text, candidates, tpl, multi)
}

// cancelAwareScores honors ctx like a pgx-backed writer
type cancelAwareScores struct {
	fakeScores
}

func (f *cancelAwareScores) WriteBatch(ctx context.Context, xs []scoredom.ScoreWrite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fakeScores.WriteBatch(ctx, xs)
}

func TestRunMidBatchCancelKeepsCompletedWork(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(6)}
	sc := &cancelAwareScores{}

	// cancel lands while the second batch's first record is being classified;
	// classifier and writer both honor ctx, so the run only stays clean if
	// in-batch work is shielded from the caller's cancellation
	ctx, cancel := context.WithCancel(t.Context())
	clf := &cancelAwareClassifier{}
	clf.onCall = func() {
		if clf.calls == 3 {
			cancel()
		}
	}
	runs := &fakeRuns{}
	svc := New(recs, sc, clf, fakeTx{}, repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage {
		return runs
	}), Config{})

	rep, err := svc.Run(ctx, domain.RunInput{Labels: testLabels, BatchSize: 2})
	if err != nil {
		t.Fatalf("mid-batch cancel must not surface as an error: %v", err)
	}
	if rep.Status != domain.RunCanceled || !rep.Incomplete {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Failures) != 0 {
		t.Fatalf("failures = %+v", rep.Failures)
	}
	// the interrupted batch (seq 2,3) still finishes and its writes land
	if rep.Records != 4 || rep.Scored != 4 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sc.writes) != 4*3 {
		t.Fatalf("writes = %d", len(sc.writes))
	}
	// the terminal run row is written despite the dead caller ctx
	if len(runs.finished) != 1 || runs.finished[0].Status != domain.RunCanceled {
		t.Fatalf("finished = %+v", runs.finished)
	}
}

func TestRunLimitCapsRecords(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(10)}
	sc := &fakeScores{}
	svc, _ := newTestService(recs, sc, &fakeClassifier{}, Config{})

	rep, err := svc.Run(t.Context(), domain.RunInput{Labels: testLabels, Limit: 4})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Records != 4 || rep.Scored != 4 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&fakeRecords{}, &fakeScores{}, &fakeClassifier{}, Config{})

	if _, err := svc.Run(t.Context(), domain.RunInput{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty labels: %v", err)
	}
	if _, err := svc.Run(t.Context(), domain.RunInput{
		Labels: testLabels, Template: "no slot",
	}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad template: %v", err)
	}
	if _, err := svc.Run(t.Context(), domain.RunInput{
		Labels: testLabels, OnError: "explode",
	}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad policy: %v", err)
	}
}

func TestRunSchemaErrorOnShortResponse(t *testing.T) {
	t.Parallel()

	recs := &fakeRecords{recs: someRecords(1)}
	sc := &fakeScores{}
	clf := &shortClassifier{}
	runs := &fakeRuns{}
	svc := New(recs, sc, clf, fakeTx{}, repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage {
		return runs
	}), Config{})

	_, err := svc.Run(t.Context(), domain.RunInput{Labels: testLabels})
	if !perr.IsCode(err, perr.ErrorCodeSchema) {
		t.Fatalf("want schema error, got %v", err)
	}
}

// shortClassifier drops a label from its answer
type shortClassifier struct{}

func (shortClassifier) Model() string { return "fake/mnli" }

func (shortClassifier) Classify(
	_ context.Context, _ string, candidates []string, _ string, _ bool,
) ([]domain.Scored, error) {
	return []domain.Scored{{Label: candidates[0], Score: 1}}, nil
}
