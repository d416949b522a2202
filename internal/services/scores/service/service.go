// Package service provides the scores service implementation
package service

import (
	"context"

	"zeroshot/internal/modkit/repokit"
	perr "zeroshot/internal/platform/errors"
	"zeroshot/internal/platform/logger"
	"zeroshot/internal/platform/store"
	"zeroshot/internal/services/scores/domain"
	"zeroshot/internal/services/scores/repo"
)

// chScoresTable is the ClickHouse mirror for score events
const chScoresTable = "score_events"

// Config for the scores service
type Config struct {
	// HardLimit is the maximum allowed limit per ListByRun call; defaults to 10000 if <=0
	HardLimit int
}

// Service implements domain.WriterPort and domain.ReaderPort
type Service struct {
	DB     repokit.TxRunner
	CH     store.Clickhouse // nil when the mirror is disabled
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
	log    logger.Logger
}

// New constructs a new scores service
func New(db repokit.TxRunner, ch store.Clickhouse, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 10000
	}
	return &Service{DB: db, CH: ch, Binder: b, Cfg: cfg, log: *logger.Named("scores")}
}

// WriteBatch implements domain.WriterPort
// Postgres is the source of truth; the ClickHouse mirror is best effort and
// never fails the caller
func (s *Service) WriteBatch(ctx context.Context, xs []domain.ScoreWrite) error {
	for _, x := range xs {
		if x.Score < 0 || x.Score > 1 {
			return perr.InvalidArgf(
				"score %g out of [0,1] for label %q", x.Score, x.LabelKey)
		}
	}

	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).WriteBatch(ctx, xs)
	})
	if err != nil {
		// the scores table also carries a CHECK on the score range
		if perr.IsCheckViolation(err) {
			return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "score rejected by table constraint")
		}
		return err
	}

	s.mirror(ctx, xs)
	return nil
}

// mirror pushes score events into ClickHouse, logging failures
func (s *Service) mirror(ctx context.Context, xs []domain.ScoreWrite) {
	if s.CH == nil || len(xs) == 0 {
		return
	}
	rows := make([][]any, len(xs))
	for i, x := range xs {
		rows[i] = []any{x.RunID, x.RecordID, x.Seq, x.LabelKey, x.Score, uint8(x.Rank), x.CreatedAt}
	}
	if err := s.CH.Insert(ctx, chScoresTable, rows); err != nil {
		s.log.Warn().Err(err).Int("rows", len(rows)).Msg("clickhouse mirror insert failed")
	}
}

// ListByRun implements domain.ReaderPort
func (s *Service) ListByRun(
	ctx context.Context, in domain.ListInput,
) ([]domain.ResultRow, domain.AfterKey, error) {
	if in.RunID == "" {
		return nil, domain.AfterKey{}, perr.InvalidArgf("run id is required")
	}
	limit := in.Limit
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}

	var rows []domain.ResultRow
	var next domain.AfterKey
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, next, err = s.Binder.Bind(q).ListByRun(ctx, in, limit)
		return err
	})
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	return rows, next, nil
}

// AggTopLabel implements domain.ReaderPort
func (s *Service) AggTopLabel(ctx context.Context, runID string) ([]domain.AggTopLabelRow, error) {
	if runID == "" {
		return nil, perr.InvalidArgf("run id is required")
	}
	var out []domain.AggTopLabelRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).AggTopLabel(ctx, runID)
		return err
	})
	return out, err
}

// AggByLabel implements domain.ReaderPort
// Prefers the ClickHouse mirror when available and falls back to Postgres
func (s *Service) AggByLabel(ctx context.Context, runID string) ([]domain.AggByLabelRow, error) {
	if runID == "" {
		return nil, perr.InvalidArgf("run id is required")
	}
	if s.CH != nil {
		out, err := s.aggByLabelCH(ctx, runID)
		if err == nil {
			return out, nil
		}
		s.log.Warn().Err(err).Msg("clickhouse aggregate failed, falling back to postgres")
	}

	var out []domain.AggByLabelRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).AggByLabel(ctx, runID)
		return err
	})
	return out, err
}

func (s *Service) aggByLabelCH(ctx context.Context, runID string) ([]domain.AggByLabelRow, error) {
	rows, err := s.CH.Query(ctx, `
		SELECT label_key, avg(score) AS mean_score, count() AS n
		FROM `+chScoresTable+`
		WHERE run_id = ?
		GROUP BY label_key
		ORDER BY label_key
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggByLabelRow
	for rows.Next() {
		var r domain.AggByLabelRow
		var n uint64
		if err := rows.Scan(&r.LabelKey, &r.MeanScore, &n); err != nil {
			return nil, err
		}
		r.N = int64(n)
		out = append(out, r)
	}
	return out, rows.Err()
}
