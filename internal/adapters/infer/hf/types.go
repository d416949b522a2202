package hf

// zeroShotRequest is the zero-shot classification request body
type zeroShotRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters zeroShotParams `json:"parameters"`
	Options    *requestOpts   `json:"options,omitempty"`
}

// zeroShotParams carries the candidate labels and entailment template
type zeroShotParams struct {
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template,omitempty"`
	MultiLabel         bool     `json:"multi_label"`
}

// requestOpts tunes inference-side behavior
type requestOpts struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
	UseCache     bool `json:"use_cache"`
}

// zeroShotResponse is the success body: parallel labels/scores arrays
// sorted by score descending
type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// apiError is the error body the inference API returns on non-2xx
// EstimatedTime is set while the model is still loading (cold start)
type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// Scored is one (label, score) pair in response order
type Scored struct {
	Label string
	Score float64
}
