// Package http provides http transport for run results
package http

import (
	stdhttp "net/http"
	"time"

	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/modkit/repokit"
	"zeroshot/internal/platform/net/http/bind"
	ptime "zeroshot/internal/platform/time"
	classifyrepo "zeroshot/internal/services/classify/repo"
	scoredom "zeroshot/internal/services/scores/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Scores scoredom.ReaderPort
	DB     repokit.TxRunner
	Runs   repokit.Binder[classifyrepo.Storage]
}

// Register mounts results endpoints on the given router
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	httpkit.Get(r, "/runs", h.runs)
	httpkit.Post(r, "/run", h.run)
	httpkit.Post(r, "/list", h.list)
}

type handlers struct{ deps Deps }

// RunDTO is one classification run on the wire
type RunDTO struct {
	ID         string   `json:"id"`
	Source     string   `json:"source,omitempty"`
	Model      string   `json:"model"`
	Template   string   `json:"template"`
	LabelKeys  []string `json:"label_keys"`
	MultiLabel bool     `json:"multi_label"`
	BatchSize  int      `json:"batch_size"`
	OnError    string   `json:"on_error"`
	Status     string   `json:"status"`
	Records    int64    `json:"records"`
	Scored     int64    `json:"scored"`
	Failed     int64    `json:"failed"`
	StartedAt  string   `json:"started_at"`
	FinishedAt *string  `json:"finished_at,omitempty"`
}

func toRunDTO(r classifyrepo.RunRow) RunDTO {
	out := RunDTO{
		ID:         r.ID,
		Source:     r.Source,
		Model:      r.Model,
		Template:   r.Template,
		LabelKeys:  r.LabelKeys,
		MultiLabel: r.MultiLabel,
		BatchSize:  r.BatchSize,
		OnError:    r.OnError,
		Status:     string(r.Status),
		Records:    r.Records,
		Scored:     r.Scored,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: ptime.RFC3339(r.FinishedAt),
	}
	return out
}

// swagger:route GET /results/runs Results resultsRuns
// @Summary List classification runs, newest first
// @Tags Results
// @Produce json
// @Success 200 {array} RunDTO ok
// @Router /results/runs [get]
func (h *handlers) runs(r *stdhttp.Request) (any, error) {
	var rows []classifyrepo.RunRow
	err := h.deps.DB.Tx(r.Context(), func(q repokit.Queryer) error {
		var err error
		rows, err = h.deps.Runs.Bind(q).List(r.Context(), 50)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]RunDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRunDTO(row))
	}
	return out, nil
}

// RunRequest names one run
// swagger:model
type RunRequest struct {
	RunID string `json:"run_id" validate:"required,uuid4"`
}

// swagger:route POST /results/run Results resultsRun
// @Summary Fetch one run by id
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body RunRequest true "Query"
// @Success 200 type RunDTO ok
// @Router /results/run [post]
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[RunRequest](r)
	if err != nil {
		return nil, err
	}
	var row classifyrepo.RunRow
	err = h.deps.DB.Tx(r.Context(), func(q repokit.Queryer) error {
		var err error
		row, err = h.deps.Runs.Bind(q).Get(r.Context(), in.RunID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRunDTO(row), nil
}

// ListRequest pages the scored cells of a run
// swagger:model
type ListRequest struct {
	RunID      string `json:"run_id"      validate:"required,uuid4"`
	AfterSeq   *int64 `json:"after_seq"   validate:"omitempty,min=0"`
	AfterLabel string `json:"after_label" validate:"omitempty,max=256"`
	Limit      int    `json:"limit"       validate:"omitempty,min=1,max=10000"`
}

// ScoreDTO is one scored (record, label) cell
type ScoreDTO struct {
	Seq      int64   `json:"seq"`
	Text     string  `json:"text"`
	LabelKey string  `json:"label_key"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// ListResponse is a page of score cells with the next keyset cursor
type ListResponse struct {
	Scores    []ScoreDTO `json:"scores"`
	NextSeq   *int64     `json:"next_seq,omitempty"`
	NextLabel string     `json:"next_label,omitempty"`
	HasMore   bool       `json:"has_more"`
}

// swagger:route POST /results/list Results resultsList
// @Summary List scored cells for a run with keyset pagination
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body ListRequest true "Query"
// @Success 200 type ListResponse ok
// @Router /results/list [post]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[ListRequest](r)
	if err != nil {
		return nil, err
	}

	li := scoredom.ListInput{RunID: in.RunID, Limit: in.Limit}
	if in.AfterSeq != nil {
		li.After = scoredom.AfterKey{Seq: *in.AfterSeq, LabelKey: in.AfterLabel, Set: true}
	}

	rows, next, err := h.deps.Scores.ListByRun(r.Context(), li)
	if err != nil {
		return nil, err
	}

	out := ListResponse{Scores: make([]ScoreDTO, 0, len(rows))}
	for _, row := range rows {
		out.Scores = append(out.Scores, ScoreDTO{
			Seq:      row.Seq,
			Text:     row.Text,
			LabelKey: row.LabelKey,
			Score:    row.Score,
			Rank:     row.Rank,
		})
	}
	if next.Set && in.Limit > 0 && len(rows) == in.Limit {
		seq := next.Seq
		out.NextSeq = &seq
		out.NextLabel = next.LabelKey
		out.HasMore = true
	}
	return out, nil
}
