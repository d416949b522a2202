package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "zeroshot/internal/platform/errors"
)

type runReq struct {
	Labels   []string `json:"labels"            validate:"required,min=1,dive,required"`
	Template string   `json:"template"          validate:"omitempty,template_slot"`
	Multi    bool     `json:"multi_label"`
}

func post(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestParseJSONHappyPath(t *testing.T) {
	got, err := ParseJSON[runReq](post(`{"labels":["economy","jobs"],"template":"This text is about {}.","multi_label":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Labels) != 2 || !got.Multi {
		t.Fatalf("parsed = %+v", got)
	}
}

func TestParseJSONRejectsEmptyBody(t *testing.T) {
	_, err := ParseJSON[runReq](post(""))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONRejectsUnknownFields(t *testing.T) {
	_, err := ParseJSON[runReq](post(`{"labels":["x"],"nope":1}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONValidatesLabels(t *testing.T) {
	_, err := ParseJSON[runReq](post(`{"labels":[]}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestTemplateSlotTag(t *testing.T) {
	// exactly one {} is fine
	if _, err := ParseJSON[runReq](post(`{"labels":["x"],"template":"about {}"}`)); err != nil {
		t.Fatalf("one slot should pass: %v", err)
	}
	// zero slots fails
	if _, err := ParseJSON[runReq](post(`{"labels":["x"],"template":"no slot"}`)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("zero slots should fail validation, got %v", err)
	}
	// two slots fails
	if _, err := ParseJSON[runReq](post(`{"labels":["x"],"template":"{} and {}"}`)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("two slots should fail validation, got %v", err)
	}
}
