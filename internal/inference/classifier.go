package inference

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// Result is the classification of one input text. Confidence is a
// percentage in [0, 100], or nil when the model gives no probability
// estimate.
type Result struct {
	Text       string   `json:"text"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
}

// Prediction is the (label, confidence) pair for a single text.
type Prediction struct {
	ClassID    int
	Label      string
	Confidence *float64
}

// Options configures a Classifier.
type Options struct {
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Strict turns a disagreement between the discrete prediction and the
	// most probable class into an error instead of a warning.
	Strict bool

	// Workers bounds parallel batch classification. Values below 2 classify
	// sequentially.
	Workers int
}

// Classifier classifies text with a loaded bundle. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	bundle  *Bundle
	logger  *zap.Logger
	strict  bool
	workers int
}

// New creates a Classifier over b. A nil or incomplete bundle is accepted
// here and reported by every classification call.
func New(b *Bundle, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Classifier{
		bundle:  b,
		logger:  logger,
		strict:  opts.Strict,
		workers: workers,
	}
}

// Classify classifies text with b using default options.
func Classify(b *Bundle, text string) (Prediction, error) {
	return New(b, Options{}).Classify(text)
}

// Classify transforms text, predicts its class and derives a confidence
// according to the bundle's capability.
func (c *Classifier) Classify(text string) (Prediction, error) {
	if reason := c.bundle.loaded(); reason != "" {
		return Prediction{}, &ErrModelNotLoaded{Reason: reason}
	}
	b := c.bundle

	x, err := b.transformer.Transform(text)
	if err != nil {
		return Prediction{}, err
	}

	classID, err := b.model.Predict(x)
	if err != nil {
		return Prediction{}, err
	}

	label, ok := b.labels[classID]
	if !ok {
		return Prediction{}, &ErrUnknownClass{ClassID: classID}
	}

	pred := Prediction{ClassID: classID, Label: label}

	switch b.capability {
	case CapabilityProbability:
		conf, err := c.probabilityConfidence(x, classID, text)
		if err != nil {
			return Prediction{}, err
		}
		pred.Confidence = &conf
	case CapabilityMargin, CapabilityNone:
		// Margins are unbounded and not calibrated; no percentage is derived.
	}

	return pred, nil
}

func (c *Classifier) probabilityConfidence(x textfeat.Vector, predicted int, text string) (float64, error) {
	proba, err := c.bundle.proba.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if len(proba) == 0 {
		return 0, errors.New("model returned an empty probability vector")
	}

	ids := c.bundle.proba.ClassIDs()
	if len(proba) != len(ids) {
		return 0, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(ids))
	}

	best := 0
	for i, p := range proba {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, fmt.Errorf("probability of class %d is not finite", ids[i])
		}
		if p > proba[best] {
			best = i
		}
	}

	if ids[best] != predicted {
		if c.strict {
			return 0, &ErrInconsistentPrediction{Predicted: predicted, MostProbable: ids[best]}
		}
		c.logger.Warn("most probable class differs from prediction",
			zap.Int("predicted", predicted),
			zap.Int("most_probable", ids[best]),
			zap.Float64("max_probability", proba[best]),
			zap.String("text", truncate(text, 60)),
		)
	}

	return clamp(proba[best]*100, 0, 100), nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
