// Package domain defines core types and interfaces for scores
package domain

import "time"

// ScoreWrite is one (record, label) score produced by a classification run
// Rank is the 0-based position in the run's descending score order for the
// record, so rank 0 is the argmax label
type ScoreWrite struct {
	RunID     string // uuid
	RecordID  string // uuid
	Seq       int64
	LabelKey  string
	Score     float64
	Rank      int
	CreatedAt time.Time
}

// ResultRow is one scored cell joined with its record text
type ResultRow struct {
	Seq      int64
	Text     string
	LabelKey string
	Score    float64
	Rank     int
}

// AfterKey supports keyset pagination over (seq, label_key)
type AfterKey struct {
	Seq      int64
	LabelKey string
	Set      bool
}

// ListInput defines the input parameters for listing run results
type ListInput struct {
	RunID string
	After AfterKey
	Limit int // hard-capped in service
}

// AggTopLabelRow counts records whose argmax label is LabelKey
type AggTopLabelRow struct {
	LabelKey string
	Records  int64
}

// AggByLabelRow is the per-label score distribution for a run
type AggByLabelRow struct {
	LabelKey  string
	MeanScore float64
	N         int64
}
