// Package http provides http transport for the records API
package http

import (
	stdhttp "net/http"
	"time"

	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/platform/net/http/bind"
	recdom "zeroshot/internal/services/records/domain"
)

// Register mounts records endpoints on the given router
func Register(r httpkit.Router, reader recdom.ReaderPort) {
	h := &handlers{reader: reader}
	httpkit.Post(r, "/list", h.list)
	httpkit.Get(r, "/count", h.count)
}

type handlers struct{ reader recdom.ReaderPort }

// ListRequest filters and pages stored records
// swagger:model
type ListRequest struct {
	Source   string `json:"source"    validate:"omitempty,max=128"`
	AfterSeq *int64 `json:"after_seq" validate:"omitempty,min=0"`
	Limit    int    `json:"limit"     validate:"omitempty,min=1,max=10000"`
}

// RecordDTO is one record row on the wire
type RecordDTO struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	ExtID     *string `json:"ext_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ListResponse carries a page of records with the next keyset cursor
type ListResponse struct {
	Records []RecordDTO `json:"records"`
	NextSeq *int64      `json:"next_seq,omitempty"`
	HasMore bool        `json:"has_more"`
}

// swagger:route POST /records/list Records recordsList
// @Summary List stored records with keyset pagination
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body ListRequest true "Query"
// @Success 200 type ListResponse ok
// @Router /records/list [post]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	in, err := bind.ParseJSON[ListRequest](r, bind.JSONOptions{AllowEmptyBody: true})
	if err != nil {
		return nil, err
	}

	li := recdom.ListInput{Source: in.Source, Limit: in.Limit}
	if in.AfterSeq != nil {
		li.After = recdom.AfterKey{Seq: *in.AfterSeq, Set: true}
	}

	rows, next, err := h.reader.List(r.Context(), li)
	if err != nil {
		return nil, err
	}

	out := ListResponse{Records: make([]RecordDTO, 0, len(rows))}
	for _, rec := range rows {
		out.Records = append(out.Records, RecordDTO{
			ID:        rec.ID,
			Seq:       rec.Seq,
			Text:      rec.Text,
			Source:    rec.Source,
			ExtID:     rec.ExtID,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if next.Set && in.Limit > 0 && len(rows) == in.Limit {
		seq := next.Seq
		out.NextSeq = &seq
		out.HasMore = true
	}
	return out, nil
}

// CountResponse reports how many records a source holds
type CountResponse struct {
	Source string `json:"source,omitempty"`
	Count  int64  `json:"count"`
}

// swagger:route GET /records/count Records recordsCount
// @Summary Count stored records, optionally per source
// @Tags Records
// @Produce json
// @Success 200 type CountResponse ok
// @Router /records/count [get]
func (h *handlers) count(r *stdhttp.Request) (any, error) {
	source := r.URL.Query().Get("source")
	n, err := h.reader.Count(r.Context(), source)
	if err != nil {
		return nil, err
	}
	return CountResponse{Source: source, Count: n}, nil
}
