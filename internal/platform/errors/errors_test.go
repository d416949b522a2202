package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestNewWrapAndUnwrap(t *testing.T) {
	cause := stderrs.New("boom")
	err := Wrap(cause, ErrorCodeDB, "insert scores")
	if got := err.Error(); got != "insert scores: boom" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped cause lost")
	}
	if Root(err) != cause {
		t.Fatalf("Root should return the deepest cause")
	}
}

func TestCodeOfAndHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   ErrorCode
		status int
	}{
		{InvalidArgf("text must be non-empty"), ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ModelUnavailablef("model %s could not be loaded", "facebook/bart-large-mnli"), ErrorCodeModelUnavailable, http.StatusServiceUnavailable},
		{Schemaf("label key %q maps to two descriptions", "jobs"), ErrorCodeSchema, http.StatusBadRequest},
		{NotFoundf("run %s", "abc"), ErrorCodeNotFound, http.StatusNotFound},
		{stderrs.New("foreign"), ErrorCodeUnknown, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := CodeOf(c.err); got != c.code {
			t.Fatalf("CodeOf(%v) = %d, want %d", c.err, got, c.code)
		}
		if got := HTTPStatus(c.err); got != c.status {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", c.err, got, c.status)
		}
	}
}

func TestWithSeq(t *testing.T) {
	err := WithSeq(ModelUnavailablef("classify failed"), 42)
	seq, ok := SeqOf(err)
	if !ok || seq != 42 {
		t.Fatalf("SeqOf = (%d, %v), want (42, true)", seq, ok)
	}
	// message must name the record
	if got := err.Error(); got != "classify failed (seq 42)" {
		t.Fatalf("Error() = %q", got)
	}
	// code survives the copy
	if !IsCode(err, ErrorCodeModelUnavailable) {
		t.Fatalf("code lost after WithSeq")
	}

	// foreign errors get wrapped so the seq still rides along
	foreign := WithSeq(stderrs.New("driver hiccup"), 7)
	seq, ok = SeqOf(foreign)
	if !ok || seq != 7 {
		t.Fatalf("SeqOf(foreign) = (%d, %v), want (7, true)", seq, ok)
	}

	if WithSeq(nil, 1) != nil {
		t.Fatalf("WithSeq(nil) should stay nil")
	}
}

func TestToWireCarriesSeq(t *testing.T) {
	err := WithSeq(InvalidArgf("empty text"), 3)
	w := WireFrom(err)
	if w.Seq == nil || *w.Seq != 3 {
		t.Fatalf("Wire.Seq = %v, want 3", w.Seq)
	}
	if w.Code != ErrorCodeInvalidArgument {
		t.Fatalf("Wire.Code = %d", w.Code)
	}
}

func TestWithFieldAndOp(t *testing.T) {
	base := InvalidArgf("bad template")
	err := WithOp(WithField(base, "hypothesis_template"), "labels.Parse")
	e, ok := As(err)
	if !ok {
		t.Fatalf("As failed")
	}
	if e.Field() != "hypothesis_template" || e.Op() != "labels.Parse" {
		t.Fatalf("field/op = %q/%q", e.Field(), e.Op())
	}
	// copy-on-write must not touch the original
	b, _ := As(base)
	if b.Field() != "" {
		t.Fatalf("original mutated")
	}
}
