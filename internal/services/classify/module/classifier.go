package module

import (
	"context"

	"zeroshot/internal/adapters/infer/hf"
	"zeroshot/internal/services/classify/domain"
)

// NewHFClassifier adapts the inference client to the classifier port
func NewHFClassifier(o hf.Options) domain.ClassifierPort {
	return &hfClassifier{c: hf.NewClient(o)}
}

type hfClassifier struct{ c *hf.Client }

func (a *hfClassifier) Model() string { return a.c.Model() }

func (a *hfClassifier) Classify(
	ctx context.Context, text string, candidates []string, template string, multiLabel bool,
) ([]domain.Scored, error) {
	scored, err := a.c.Classify(ctx, text, candidates, template, multiLabel)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Scored, len(scored))
	for i, s := range scored {
		out[i] = domain.Scored{Label: s.Label, Score: s.Score}
	}
	return out, nil
}
