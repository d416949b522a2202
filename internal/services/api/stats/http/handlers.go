// Package http provides http transport for run aggregates
package http

import (
	stdhttp "net/http"

	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/platform/net/http/bind"
	scoredom "zeroshot/internal/services/scores/domain"
)

// Register mounts stats endpoints on the given router
func Register(r httpkit.Router, scores scoredom.ReaderPort) {
	h := &handlers{scores: scores}
	httpkit.Post(r, "/top-label", h.topLabel)
	httpkit.Post(r, "/by-label", h.byLabel)
}

type handlers struct{ scores scoredom.ReaderPort }

// StatsRequest names the run to aggregate
// swagger:model
type StatsRequest struct {
	RunID string `json:"run_id" validate:"required,uuid4"`
}

// TopLabelRow counts records per winning label
type TopLabelRow struct {
	LabelKey string `json:"label_key"`
	Records  int64  `json:"records"`
}

// ByLabelRow is a label's score distribution over a run
type ByLabelRow struct {
	LabelKey  string  `json:"label_key"`
	MeanScore float64 `json:"mean_score"`
	N         int64   `json:"n"`
}

// swagger:route POST /stats/top-label Stats statsTopLabel
// @Summary Records per argmax label for a run
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body StatsRequest true "Query"
// @Success 200 {array} TopLabelRow ok
// @Router /stats/top-label [post]
func (h *handlers) topLabel(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[StatsRequest](r)
	if err != nil {
		return nil, err
	}
	rows, err := h.scores.AggTopLabel(r.Context(), in.RunID)
	if err != nil {
		return nil, err
	}
	out := make([]TopLabelRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopLabelRow{LabelKey: row.LabelKey, Records: row.Records})
	}
	return out, nil
}

// swagger:route POST /stats/by-label Stats statsByLabel
// @Summary Per-label mean score and cardinality for a run
// @Tags Stats
// @Accept json
// @Produce json
// @Param payload body StatsRequest true "Query"
// @Success 200 {array} ByLabelRow ok
// @Router /stats/by-label [post]
func (h *handlers) byLabel(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[StatsRequest](r)
	if err != nil {
		return nil, err
	}
	rows, err := h.scores.AggByLabel(r.Context(), in.RunID)
	if err != nil {
		return nil, err
	}
	out := make([]ByLabelRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ByLabelRow{LabelKey: row.LabelKey, MeanScore: row.MeanScore, N: row.N})
	}
	return out, nil
}
