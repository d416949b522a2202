// Package hf provides a resilient zero-shot classification client for the
// HuggingFace Inference API wire shape
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"zeroshot/internal/platform/config"
	perr "zeroshot/internal/platform/errors"
	"zeroshot/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api-inference.huggingface.co"
	modelDefault     = "facebook/bart-large-mnli"
	defaultTimeout   = 30 * time.Second
	defaultMaxRetry  = 5
	defaultRetryBase = 500 * time.Millisecond

	// upper bound on how long a single model-loading wait may sleep
	loadWaitCeiling = 30 * time.Second

	// diagnostics tail read from unexpected response bodies
	bodyTailBytes = 2048
)

// Options configures the Client
type Options struct {
	BaseURL string
	Model   string
	Token   string
	Timeout time.Duration

	// Retry config for transient errors, rate limits, and model cold starts
	MaxRetries int
	RetryBase  time.Duration

	// WaitForModel asks the API to block while the model loads instead of
	// answering 503 with an estimated_time
	WaitForModel bool

	// Device is a placement hint (cpu or accelerator), forwarded as a header
	// and logged; it never changes scores
	Device string
}

// OptionsFromConf reads the client config from an already-prefixed Conf
func OptionsFromConf(cfg config.Conf) Options {
	return Options{
		BaseURL:      cfg.MayString("BASE_URL", baseURLDefault),
		Model:        cfg.MayString("MODEL", modelDefault),
		Token:        cfg.MayString("TOKEN", ""),
		Timeout:      cfg.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries:   cfg.MayInt("MAX_RETRIES", defaultMaxRetry),
		RetryBase:    cfg.MayDuration("RETRY_BASE", defaultRetryBase),
		WaitForModel: cfg.MayBool("WAIT_FOR_MODEL", true),
		Device:       cfg.MayEnum("DEVICE", "cpu", "cpu", "accelerator"),
	}
}

// Client calls the zero-shot classification endpoint with retries and
// model cold-start handling
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Model == "" {
		o.Model = modelDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.Device == "" {
		o.Device = "cpu"
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("hf"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Model returns the configured model identifier
func (c *Client) Model() string { return c.opts.Model }

// Classify scores one text against candidate labels and returns (label, score)
// pairs in response order, which the API sorts by score descending.
// Input problems are rejected before any network call
func (c *Client) Classify(
	ctx context.Context, text string, labels []string, template string, multiLabel bool,
) ([]Scored, error) {
	if strings.TrimSpace(text) == "" {
		return nil, perr.InvalidArgf("classify: text must not be empty")
	}
	if len(labels) == 0 {
		return nil, perr.InvalidArgf("classify: candidate labels must not be empty")
	}
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, perr.InvalidArgf("classify: candidate label %d is empty", i)
		}
	}
	if template != "" && strings.Count(template, "{}") != 1 {
		return nil, perr.InvalidArgf("classify: hypothesis template must contain exactly one {} placeholder")
	}

	payload, err := json.Marshal(zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParams{
			CandidateLabels:    labels,
			HypothesisTemplate: template,
			MultiLabel:         multiLabel,
		},
		Options: &requestOpts{WaitForModel: c.opts.WaitForModel, UseCache: true},
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "hf marshal request failed")
	}

	body, err := c.do(ctx, payload)
	if err != nil {
		return nil, err
	}

	var out zeroShotResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "hf decode response failed")
	}
	if len(out.Labels) != len(out.Scores) {
		return nil, perr.Internalf(
			"hf malformed response: %d labels vs %d scores", len(out.Labels), len(out.Scores))
	}
	if len(out.Labels) == 0 {
		return nil, perr.Internalf("hf malformed response: no labels returned")
	}

	scored := make([]Scored, len(out.Labels))
	for i := range out.Labels {
		scored[i] = Scored{Label: out.Labels[i], Score: out.Scores[i]}
	}
	return scored, nil
}

// do posts the payload with auth and placement headers, retrying transient
// failures, rate limits, and model cold starts
func (c *Client) do(ctx context.Context, payload []byte) ([]byte, error) {
	url := c.opts.BaseURL + "/models/" + c.opts.Model
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "hf new request failed")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Compute-Device", c.opts.Device)
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(
					err, perr.ErrorCodeModelUnavailable, "model %s unreachable", c.opts.Model)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("hf transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Str("model", c.opts.Model).
			Str("device", c.opts.Device).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("hf http response")

		switch resp.StatusCode {
		case http.StatusOK:
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return nil, perr.Wrapf(rerr, perr.ErrorCodeUnknown, "hf read body failed")
			}
			return body, nil

		case http.StatusServiceUnavailable:
			// 503 with estimated_time means the model is still loading
			apiErr := readAPIError(resp.Body)
			_ = resp.Body.Close()
			if !c.shouldRetry(attempts) {
				return nil, perr.ModelUnavailablef(
					"model %s unavailable: %s", c.opts.Model, apiErr.Error)
			}
			wait := c.backoff(attempts)
			if apiErr.EstimatedTime > 0 {
				wait = loadWait(apiErr.EstimatedTime)
				c.log.Info().
					Dur("wait", wait).
					Float64("estimated_time_s", apiErr.EstimatedTime).
					Msg("hf model loading waiting")
			} else {
				c.log.Warn().Dur("retry_in", wait).Int("attempt", attempts).Msg("hf transient 503 retrying")
			}
			c.sleep(wait)
			attempts++
			continue

		case http.StatusTooManyRequests:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "hf rate limited")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("sleep", back).Msg("hf rate limited backing off")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue

		case http.StatusBadGateway, http.StatusGatewayTimeout:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.ModelUnavailablef("model %s transient server error", c.opts.Model)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("hf transient error retrying")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			tail := readTail(resp.Body)
			_ = resp.Body.Close()
			return nil, perr.InvalidArgf("hf rejected request: %s", tail)

		default:
			tail := readTail(resp.Body)
			_ = resp.Body.Close()
			return nil, perr.Newf(
				perr.ErrorCodeUnknown, "hf unexpected status %d body %s", resp.StatusCode, tail)
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	// simple exponential with cap
	ms := int64(d / time.Millisecond)
	ms = ms << uint(attempt)
	max := int64(30 * time.Second / time.Millisecond)
	if ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

// loadWait converts an estimated_time in seconds to a bounded sleep
func loadWait(estimatedSeconds float64) time.Duration {
	d := time.Duration(estimatedSeconds * float64(time.Second))
	if d <= 0 {
		return time.Second
	}
	if d > loadWaitCeiling {
		return loadWaitCeiling
	}
	return d
}

// readAPIError best-effort decodes an error body; failures leave zero values
func readAPIError(r io.Reader) apiError {
	var e apiError
	_ = json.NewDecoder(io.LimitReader(r, bodyTailBytes)).Decode(&e)
	return e
}

// readTail reads a small diagnostics tail from an unexpected body
func readTail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, bodyTailBytes))
	return string(b)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<20))
	return rc.Close()
}
