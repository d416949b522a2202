package hf

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "zeroshot/internal/platform/errors"
	kit "zeroshot/internal/platform/testkit"
)

func newTestClient(t *testing.T, srvURL string, o Options) *Client {
	t.Helper()
	o.BaseURL = srvURL
	if o.Model == "" {
		o.Model = "acme/test-mnli"
	}
	c := NewClient(o)
	c.sleep = func(time.Duration) {}
	return c
}

func TestClassifyHappyPath(t *testing.T) {
	t.Parallel()

	var gotReq zeroShotRequest
	var gotAuth, gotDevice string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDevice = r.Header.Get("X-Compute-Device")
		if r.URL.Path != "/models/acme/test-mnli" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Sequence: gotReq.Inputs,
			Labels:   []string{"economy", "sports"},
			Scores:   []float64{0.85, 0.15},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{Token: "hf_secret", Device: "accelerator"})
	out, err := c.Classify(
		t.Context(), "markets rallied today", []string{"economy", "sports"}, "This example is {}.", false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if gotAuth != "Bearer hf_secret" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotDevice != "accelerator" {
		t.Fatalf("device header = %q", gotDevice)
	}
	if gotReq.Parameters.HypothesisTemplate != "This example is {}." {
		t.Fatalf("template = %q", gotReq.Parameters.HypothesisTemplate)
	}
	if gotReq.Parameters.MultiLabel {
		t.Fatal("multi_label should be false")
	}
	if len(out) != 2 || out[0].Label != "economy" || out[1].Label != "sports" {
		t.Fatalf("out = %+v", out)
	}
	kit.InDelta(t, out[0].Score, 0.85, 1e-9)
}

func TestClassifySingleLabelDistribution(t *testing.T) {
	t.Parallel()

	// single-label mode returns a softmax distribution sorted descending;
	// the client must preserve that order so index 0 is the argmax
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Labels: []string{"politics", "economy", "sports"},
			Scores: []float64{0.62, 0.27, 0.11},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	out, err := c.Classify(
		t.Context(), "the vote passed", []string{"economy", "sports", "politics"}, "", false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	var sum float64
	for i, s := range out {
		sum += s.Score
		if i > 0 && out[i-1].Score < s.Score {
			t.Fatalf("scores not descending at %d: %+v", i, out)
		}
	}
	kit.InDelta(t, sum, 1.0, 1e-6)
	if out[0].Label != "politics" {
		t.Fatalf("argmax = %q", out[0].Label)
	}
}

func TestClassifyValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	cases := []struct {
		name     string
		text     string
		labels   []string
		template string
	}{
		{"empty text", "", []string{"a"}, ""},
		{"blank text", "   ", []string{"a"}, ""},
		{"no labels", "hello", nil, ""},
		{"blank label", "hello", []string{"a", " "}, ""},
		{"template no slot", "hello", []string{"a"}, "no placeholder"},
		{"template two slots", "hello", []string{"a"}, "{} and {}"},
	}
	for _, tc := range cases {
		_, err := c.Classify(t.Context(), tc.text, tc.labels, tc.template, false)
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("%s: want invalid argument, got %v", tc.name, err)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("server was hit %d times for invalid input", n)
	}
}

func TestClassifyWaitsOutModelLoading(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(apiError{Error: "Model acme/test-mnli is currently loading", EstimatedTime: 3.5})
			return
		}
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Labels: []string{"economy"},
			Scores: []float64{1.0},
		})
	}))
	defer srv.Close()

	var slept time.Duration
	c := newTestClient(t, srv.URL, Options{})
	c.sleep = func(d time.Duration) { slept += d }

	out, err := c.Classify(t.Context(), "hello", []string{"economy"}, "", false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out) != 1 || out[0].Label != "economy" {
		t.Fatalf("out = %+v", out)
	}
	if hits.Load() != 2 {
		t.Fatalf("hits = %d", hits.Load())
	}
	// slept the estimated_time, not the generic backoff
	if slept != 3500*time.Millisecond {
		t.Fatalf("slept = %v", slept)
	}
}

func TestClassifyModelUnavailableAfterRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(apiError{Error: "overloaded"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{MaxRetries: 2})
	_, err := c.Classify(t.Context(), "hello", []string{"economy"}, "", false)
	if !perr.IsCode(err, perr.ErrorCodeModelUnavailable) {
		t.Fatalf("want model unavailable, got %v", err)
	}
	// the failing model is always named
	kit.MustContain(t, err.Error(), "acme/test-mnli")
}

func TestClassifyBadRequestIsInvalidArgument(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(apiError{Error: "unknown parameter"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	_, err := c.Classify(t.Context(), "hello", []string{"economy"}, "", false)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
	kit.MustContain(t, err.Error(), "unknown parameter")
}

func TestClassifyMalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Labels: []string{"economy", "sports"},
			Scores: []float64{1.0},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	_, err := c.Classify(t.Context(), "hello", []string{"economy", "sports"}, "", false)
	if err == nil {
		t.Fatal("want error for mismatched labels/scores")
	}
	kit.MustContain(t, err.Error(), "malformed")
}
