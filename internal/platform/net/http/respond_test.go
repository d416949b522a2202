package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "zeroshot/internal/platform/errors"
	kit "zeroshot/internal/platform/testkit"
)

func TestRespondOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/records", nil)

	RespondOK(rec, req, map[string]any{"hello": "world"})

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.StatusCode != stdhttp.StatusOK || env.Status != "OK" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRespondErrorMapsStatusAndCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, "/runs", nil)

	RespondError(rec, req, perr.ModelUnavailablef("model %s is loading", "facebook/bart-large-mnli"))

	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	kit.MustContain(t, rec.Body.String(), "facebook/bart-large-mnli")

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != perr.ErrorCodeModelUnavailable {
		t.Fatalf("code = %d", env.Code)
	}
}

func TestHandleErrorBody(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return Error(perr.Schemaf("result for seq 3 is missing label %q", "jobs"))
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodGet, "/table", nil))

	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRespondCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/table.csv", nil)

	RespondCSV(rec, req, "table.csv", [][]string{
		{"sequence", "text", "economy", "jobs"},
		{"0", "hello, world", "0.91", "0.09"},
	})

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("content type = %q", got)
	}
	// embedded comma must be quoted by the csv writer
	kit.MustContain(t, rec.Body.String(), `"hello, world"`)
	kit.MustContain(t, rec.Body.String(), "sequence,text,economy,jobs")
}
