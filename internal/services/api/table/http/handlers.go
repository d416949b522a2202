// Package http serves the reshaped wide table for a run
package http

import (
	stdhttp "net/http"
	"sort"

	"zeroshot/internal/core/reshape"
	"zeroshot/internal/modkit/httpkit"
	perr "zeroshot/internal/platform/errors"
	phttp "zeroshot/internal/platform/net/http"
	scoredom "zeroshot/internal/services/scores/domain"
)

// pageSize bounds each storage page while assembling the full table
const pageSize = 10000

// Register mounts the table endpoints on the given router
func Register(r httpkit.Router, scores scoredom.ReaderPort) {
	h := &handlers{scores: scores}
	r.Get("/", h.table)
}

type handlers struct{ scores scoredom.ReaderPort }

// table serves GET /table?run_id=...&format=json|csv
// the full run is assembled in memory; runs are bounded by dataset size
func (h *handlers) table(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		phttp.RespondError(w, r, perr.InvalidArgf("run_id is required"))
		return
	}

	results, err := h.collect(r, runID)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	if len(results) == 0 {
		phttp.RespondError(w, r, perr.NotFoundf("run %s has no results", runID))
		return
	}

	tab, err := reshape.Flatten(results)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		phttp.RespondCSV(w, r, "table-"+runID+".csv", tab.Records())
		return
	}
	phttp.RespondOK(w, r, tab)
}

// collect pages the run's score cells and regroups them per record
// cells inside a record follow the model's rank order so the column order
// of the wide table matches the run's score ordering
func (h *handlers) collect(r *stdhttp.Request, runID string) ([]reshape.Result, error) {
	type rec struct {
		seq    int64
		text   string
		scores []scoredom.ResultRow
	}
	bySeq := map[int64]*rec{}
	var order []int64

	after := scoredom.AfterKey{}
	for {
		rows, next, err := h.scores.ListByRun(r.Context(), scoredom.ListInput{
			RunID: runID, After: after, Limit: pageSize,
		})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			g, ok := bySeq[row.Seq]
			if !ok {
				g = &rec{seq: row.Seq, text: row.Text}
				bySeq[row.Seq] = g
				order = append(order, row.Seq)
			}
			g.scores = append(g.scores, row)
		}
		if len(rows) < pageSize {
			break
		}
		after = next
	}

	out := make([]reshape.Result, 0, len(order))
	for _, seq := range order {
		g := bySeq[seq]
		sort.Slice(g.scores, func(i, j int) bool { return g.scores[i].Rank < g.scores[j].Rank })
		scores := make([]reshape.Score, 0, len(g.scores))
		for _, s := range g.scores {
			scores = append(scores, reshape.Score{Key: s.LabelKey, Score: s.Score})
		}
		out = append(out, reshape.Result{Seq: g.seq, Text: g.text, Scores: scores})
	}
	return out, nil
}
