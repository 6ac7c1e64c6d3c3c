package inference

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs a per-item result with its error. Exactly one of the two
// is meaningful: Err is nil on success.
type Outcome struct {
	Result Result
	Err    error
}

// ClassifyBatch classifies texts with b using default options.
func ClassifyBatch(ctx context.Context, b *Bundle, texts []string) ([]Result, error) {
	return New(b, Options{}).ClassifyBatch(ctx, texts)
}

// ClassifyBatch classifies every text and returns one Result per input, in
// input order. The first failure aborts the batch and no partial results
// are returned. Cancellation is observed between items.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) ([]Result, error) {
	if reason := c.bundle.loaded(); reason != "" {
		return nil, &ErrModelNotLoaded{Reason: reason}
	}
	if c.workers > 1 && len(texts) > 1 {
		return c.classifyParallel(ctx, texts)
	}

	results := make([]Result, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := c.classifyOne(text)
		if err != nil {
			return nil, &ErrBatchItem{Index: i, Err: err}
		}
		results[i] = r
	}
	return results, nil
}

func (c *Classifier) classifyParallel(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := c.classifyOne(text)
			if err != nil {
				return &ErrBatchItem{Index: i, Err: err}
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ClassifyEach classifies every text and records each outcome separately,
// so one failing item does not abort the rest. Items not reached before
// cancellation carry the context error.
func (c *Classifier) ClassifyEach(ctx context.Context, texts []string) []Outcome {
	out := make([]Outcome, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			out[i] = Outcome{Result: Result{Text: text}, Err: err}
			continue
		}
		r, err := c.classifyOne(text)
		out[i] = Outcome{Result: r, Err: err}
	}
	return out
}

func (c *Classifier) classifyOne(text string) (Result, error) {
	p, err := c.Classify(text)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{Text: text, Label: p.Label, Confidence: p.Confidence}, nil
}
