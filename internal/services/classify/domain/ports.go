package domain

import (
	"context"

	recdom "zeroshot/internal/services/records/domain"
	scoredom "zeroshot/internal/services/scores/domain"
)

// RunnerPort is the external port for the classify job
type RunnerPort interface {
	Run(ctx context.Context, in RunInput) (RunReport, error)
}

// ClassifierPort scores one text against candidate label descriptions
// implementations return pairs sorted by score descending
type ClassifierPort interface {
	Classify(
		ctx context.Context, text string, candidates []string, template string, multiLabel bool,
	) ([]Scored, error)

	// Model identifies the backing model for run bookkeeping
	Model() string
}

// Ports are dependencies injected into the classify module
type Ports struct {
	Records    recdom.ReaderPort   // required
	Scores     scoredom.WriterPort // required
	Classifier ClassifierPort      // required
}
