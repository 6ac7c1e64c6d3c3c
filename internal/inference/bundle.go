package inference

import (
	"sort"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// Model predicts a single class id for a feature vector.
type Model interface {
	Predict(x textfeat.Vector) (int, error)
}

// ProbabilisticClassifier is a Model that also estimates per-class
// probabilities. PredictProba columns follow ClassIDs order.
type ProbabilisticClassifier interface {
	Model
	ClassIDs() []int
	PredictProba(x textfeat.Vector) ([]float64, error)
}

// MarginClassifier is a Model that exposes raw decision margins.
type MarginClassifier interface {
	Model
	DecisionFunction(x textfeat.Vector) ([]float64, error)
}

// Capability records which confidence policy applies to a bundle's model.
type Capability string

const (
	CapabilityProbability Capability = "probability"
	CapabilityMargin      Capability = "margin"
	CapabilityNone        Capability = "none"
)

// capabilityOf picks the confidence policy. Probability estimates take
// priority over margins when a model offers both.
func capabilityOf(m Model) Capability {
	switch m.(type) {
	case ProbabilisticClassifier:
		return CapabilityProbability
	case MarginClassifier:
		return CapabilityMargin
	default:
		return CapabilityNone
	}
}

// LabelMap maps class ids to human-readable labels.
type LabelMap map[int]string

// Labels returns the distinct label strings, sorted.
func (m LabelMap) Labels() []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, l := range m {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// ClassIDs returns the mapped class ids, ascending.
func (m LabelMap) ClassIDs() []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Bundle is the immutable triple of trained model, feature transformer and
// label map. The confidence policy is resolved once, at construction.
type Bundle struct {
	model       Model
	transformer textfeat.Transformer
	labels      LabelMap
	capability  Capability
	proba       ProbabilisticClassifier
}

// NewBundle assembles a bundle. The label map is copied so later changes
// by the caller cannot leak in.
func NewBundle(model Model, transformer textfeat.Transformer, labels LabelMap) *Bundle {
	b := &Bundle{
		model:       model,
		transformer: transformer,
		labels:      make(LabelMap, len(labels)),
	}
	for id, l := range labels {
		b.labels[id] = l
	}
	if model != nil {
		b.capability = capabilityOf(model)
		b.proba, _ = model.(ProbabilisticClassifier)
	}
	return b
}

// Capability reports the confidence policy selected for this bundle.
func (b *Bundle) Capability() Capability {
	return b.capability
}

// Label resolves a class id.
func (b *Bundle) Label(id int) (string, bool) {
	l, ok := b.labels[id]
	return l, ok
}

// Labels returns a copy of the label map.
func (b *Bundle) Labels() LabelMap {
	out := make(LabelMap, len(b.labels))
	for id, l := range b.labels {
		out[id] = l
	}
	return out
}

// Model returns the underlying model.
func (b *Bundle) Model() Model {
	return b.model
}

// Transformer returns the feature transformer.
func (b *Bundle) Transformer() textfeat.Transformer {
	return b.transformer
}

// loaded reports why b cannot be used, or "" when it is complete.
func (b *Bundle) loaded() string {
	switch {
	case b == nil:
		return "bundle is nil"
	case b.model == nil:
		return "bundle has no model"
	case b.transformer == nil:
		return "bundle has no feature transformer"
	case len(b.labels) == 0:
		return "bundle has an empty label map"
	}
	return ""
}
