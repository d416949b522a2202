// Package service provides the records service implementation
package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"zeroshot/internal/adapters/dataset/csvfile"
	"zeroshot/internal/core/textnorm"
	"zeroshot/internal/modkit/repokit"
	perr "zeroshot/internal/platform/errors"
	pstr "zeroshot/internal/platform/strings"
	"zeroshot/internal/services/records/domain"
	"zeroshot/internal/services/records/repo"
)

// Config for the records service
type Config struct {
	// HardLimit is the maximum allowed limit per List call; defaults to 5000 if <=0
	HardLimit int

	// FlushEvery is the ingest batch size per transaction; defaults to 500 if <=0
	FlushEvery int
}

// Service implements domain.ReaderPort and domain.IngesterPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Norm   *textnorm.Normalizer
	Cfg    Config
	now    func() time.Time
}

// New constructs a new records service
// ingest transactions relax synchronous_commit since a lost tail batch is
// re-ingestable and the insert is idempotent per (source, seq)
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], cfg Config) *Service {
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 5000
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 500
	}
	return &Service{
		DB: repokit.WithBeginHooks(db, relaxSyncCommit),
		Binder: b, Cfg: cfg, Norm: textnorm.New(),
		now: time.Now,
	}
}

func relaxSyncCommit(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, `SET LOCAL synchronous_commit = off`)
	return err
}

// List implements domain.ReaderPort
func (s *Service) List(ctx context.Context, in domain.ListInput) ([]domain.Record, domain.AfterKey, error) {
	limit := in.Limit
	if limit <= 0 || limit > s.Cfg.HardLimit {
		limit = s.Cfg.HardLimit
	}

	var rows []domain.Record
	var next domain.AfterKey
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, next, err = s.Binder.Bind(q).List(ctx, in, limit)
		return err
	})
	if err != nil {
		return nil, domain.AfterKey{}, err
	}
	return rows, next, nil
}

// Count implements domain.ReaderPort
func (s *Service) Count(ctx context.Context, source string) (int64, error) {
	var n int64
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		n, err = s.Binder.Bind(q).Count(ctx, source)
		return err
	})
	return n, err
}

// IngestCSV implements domain.IngesterPort
// Seq is assigned by row order starting at 0; a row with empty text aborts
// the whole ingest so partial datasets never masquerade as complete ones
func (s *Service) IngestCSV(
	ctx context.Context, src io.ReadCloser, in domain.IngestInput,
) (domain.IngestReport, error) {
	if strings.TrimSpace(in.Source) == "" {
		return domain.IngestReport{}, perr.InvalidArgf("ingest: source name is required")
	}

	rd, err := csvfile.NewReader(src, csvfile.Options{
		TextColumn: in.TextColumn,
		IDColumn:   in.IDColumn,
	})
	if err != nil {
		return domain.IngestReport{}, err
	}
	defer func() { _ = rd.Close() }()

	var rep domain.IngestReport
	batch := make([]domain.Record, 0, s.Cfg.FlushEvery)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		var inserted int64
		err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
			var err error
			inserted, err = s.Binder.Bind(q).InsertBatch(ctx, batch)
			return err
		})
		if err != nil {
			return err
		}
		rep.Inserted += inserted
		rep.Skipped += int64(len(batch)) - inserted
		batch = batch[:0]
		return nil
	}

	for {
		row, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep, err
		}
		if strings.TrimSpace(row.Text) == "" {
			return rep, perr.InvalidArgf("ingest: row %d has empty text", row.Line)
		}

		rep.Rows++
		batch = append(batch, domain.Record{
			ID:        uuid.NewString(),
			Seq:       int64(row.Line) - 1,
			Text:      row.Text,
			TextNorm:  s.Norm.Normalize(row.Text),
			Source:    in.Source,
			ExtID:     pstr.Ptr(row.ID),
			CreatedAt: s.now().UTC(),
		})
		if len(batch) >= s.Cfg.FlushEvery {
			if err := flush(); err != nil {
				return rep, err
			}
		}
	}
	if err := flush(); err != nil {
		return rep, err
	}
	return rep, nil
}
