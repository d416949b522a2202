// Package service implements the batch-sequential classification runner
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zeroshot/internal/core/labels"
	"zeroshot/internal/modkit/repokit"
	perr "zeroshot/internal/platform/errors"
	"zeroshot/internal/platform/logger"
	"zeroshot/internal/services/classify/domain"
	"zeroshot/internal/services/classify/repo"
	recdom "zeroshot/internal/services/records/domain"
	scoredom "zeroshot/internal/services/scores/domain"
)

// Config for the classify service
type Config struct {
	// BatchSize is the default batch partition when RunInput leaves it 0
	// batching is throughput only and never changes per-record scores
	BatchSize int

	// PageSize is how many records are fetched per storage page
	PageSize int
}

// Service implements domain.RunnerPort
type Service struct {
	Records recdom.ReaderPort
	Scores  scoredom.WriterPort
	Clf     domain.ClassifierPort
	DB      repokit.TxRunner
	Binder  repokit.Binder[repo.Storage]
	Cfg     Config
	log     logger.Logger
	now     func() time.Time
}

// New constructs a new classify service
func New(
	records recdom.ReaderPort,
	scores scoredom.WriterPort,
	clf domain.ClassifierPort,
	db repokit.TxRunner,
	b repokit.Binder[repo.Storage],
	cfg Config,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	return &Service{
		Records: records, Scores: scores, Clf: clf,
		DB: db, Binder: b, Cfg: cfg,
		log: *logger.Named("classify"),
		now: time.Now,
	}
}

// Run classifies stored records batch by batch, preserving input order.
// Records are processed one at a time inside each batch; cancellation is
// observed between batches only, so a started batch always finishes and the
// report is tagged Incomplete instead of losing completed work. In-batch
// classify and write calls run detached from the caller's ctx so a signal
// landing mid-batch cannot surface as a record failure
func (s *Service) Run(ctx context.Context, in domain.RunInput) (domain.RunReport, error) {
	set, err := labels.ParseSet(in.Labels)
	if err != nil {
		return domain.RunReport{}, err
	}
	tpl := labels.Template(in.Template)
	if tpl == "" {
		tpl = labels.DefaultTemplate
	}
	if err := tpl.Validate(); err != nil {
		return domain.RunReport{}, err
	}
	policy := in.OnError
	if policy == "" {
		policy = domain.OnErrorFailFast
	}
	if !policy.Valid() {
		return domain.RunReport{}, perr.InvalidArgf("unknown on_error policy %q", in.OnError)
	}
	batchSize := in.BatchSize
	if batchSize <= 0 {
		batchSize = s.Cfg.BatchSize
	}

	rep := domain.RunReport{
		RunID:   uuid.NewString(),
		Status:  domain.RunRunning,
		Started: s.now().UTC(),
	}
	if err := s.createRun(ctx, rep, in, set, tpl, batchSize, policy); err != nil {
		return domain.RunReport{}, err
	}

	candidates := set.Descriptions()
	canceled := false
	var fatal error

	// batch interior runs on a detached context so only the boundaries below
	// ever see the caller's cancellation
	work := context.WithoutCancel(ctx)

	after := recdom.AfterKey{}
pages:
	for {
		rows, next, err := s.Records.List(ctx, recdom.ListInput{
			Source: in.Source, After: after, Limit: s.Cfg.PageSize,
		})
		if err != nil {
			// a page fetch aborted by cancellation is a boundary, not a failure
			if ctx.Err() != nil {
				canceled = true
				break
			}
			fatal = err
			break
		}
		if len(rows) == 0 {
			break
		}

		for start := 0; start < len(rows); start += batchSize {
			// cancellation boundary: never inside a batch
			select {
			case <-ctx.Done():
				canceled = true
				break pages
			default:
			}

			end := min(start+batchSize, len(rows))
			batch := rows[start:end]

			writes := make([]scoredom.ScoreWrite, 0, len(batch)*set.Len())
			for _, rec := range batch {
				if in.Limit > 0 && rep.Records >= in.Limit {
					break
				}
				rep.Records++

				recWrites, err := s.classifyOne(work, rep.RunID, rec, set, candidates, string(tpl), in.MultiLabel)
				if err != nil {
					err = perr.WithSeq(err, rec.Seq)
					rep.Failures = append(rep.Failures, domain.Failure{Seq: rec.Seq, Err: err.Error()})
					s.log.Warn().Err(err).Int64("seq", rec.Seq).Msg("record classification failed")
					if policy == domain.OnErrorFailFast {
						fatal = err
						break pages
					}
					continue
				}
				writes = append(writes, recWrites...)
				rep.Scored++
			}

			if len(writes) > 0 {
				if err := s.Scores.WriteBatch(work, writes); err != nil {
					fatal = err
					break pages
				}
			}
			if in.Limit > 0 && rep.Records >= in.Limit {
				break pages
			}
		}

		after = next
	}

	rep.Incomplete = canceled
	rep.Status = finalStatus(rep, canceled, fatal)
	rep.Finished = s.now().UTC()
	// the terminal run row must land even when the caller's ctx is gone
	if err := s.finishRun(work, rep); err != nil {
		s.log.Error().Err(err).Str("run_id", rep.RunID).Msg("finishing run row failed")
	}
	return rep, fatal
}

// classifyOne scores a single record and maps the model's label descriptions
// back to the configured keys. Every configured label must come back scored
func (s *Service) classifyOne(
	ctx context.Context,
	runID string,
	rec recdom.Record,
	set labels.Set,
	candidates []string,
	template string,
	multiLabel bool,
) ([]scoredom.ScoreWrite, error) {
	scored, err := s.Clf.Classify(ctx, rec.Text, candidates, template, multiLabel)
	if err != nil {
		return nil, err
	}
	if len(scored) != set.Len() {
		return nil, perr.Schemaf(
			"model returned %d labels, expected %d", len(scored), set.Len())
	}

	now := s.now().UTC()
	writes := make([]scoredom.ScoreWrite, 0, len(scored))
	for rank, sc := range scored {
		key, ok := set.KeyFor(sc.Label)
		if !ok {
			return nil, perr.Schemaf("model returned unknown label %q", sc.Label)
		}
		writes = append(writes, scoredom.ScoreWrite{
			RunID:     runID,
			RecordID:  rec.ID,
			Seq:       rec.Seq,
			LabelKey:  key,
			Score:     sc.Score,
			Rank:      rank,
			CreatedAt: now,
		})
	}
	return writes, nil
}

func (s *Service) createRun(
	ctx context.Context,
	rep domain.RunReport,
	in domain.RunInput,
	set labels.Set,
	tpl labels.Template,
	batchSize int,
	policy domain.OnError,
) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).Create(ctx, repo.RunRow{
			ID:         rep.RunID,
			Source:     in.Source,
			Model:      s.Clf.Model(),
			Template:   string(tpl),
			LabelKeys:  set.Keys(),
			MultiLabel: in.MultiLabel,
			BatchSize:  batchSize,
			OnError:    string(policy),
			Status:     domain.RunRunning,
			StartedAt:  rep.Started,
		})
	})
}

func (s *Service) finishRun(ctx context.Context, rep domain.RunReport) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).Finish(
			ctx, rep.RunID, rep.Status,
			rep.Records, rep.Scored, int64(len(rep.Failures)), rep.Finished)
	})
}

// finalStatus derives the terminal run state
func finalStatus(rep domain.RunReport, canceled bool, fatal error) domain.RunStatus {
	switch {
	case canceled:
		return domain.RunCanceled
	case fatal != nil:
		return domain.RunFailed
	case len(rep.Failures) > 0:
		return domain.RunPartial
	default:
		return domain.RunSucceeded
	}
}
