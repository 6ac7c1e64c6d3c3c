package artifact

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/linear"
	"github.com/abhisek/cogdistort/internal/textfeat"
)

// Model kinds understood by the decoder registry.
const (
	KindLogistic  = "logistic"
	KindLinearSVC = "linear_svc"
)

type plattParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// modelFile is the on-disk form of model.json.
type modelFile struct {
	Kind       string        `json:"kind"`
	Classes    []int         `json:"classes"`
	Coef       [][]float64   `json:"coef"`
	Intercept  []float64     `json:"intercept"`
	MultiClass string        `json:"multi_class,omitempty"`
	Platt      []plattParams `json:"platt,omitempty"`
}

func (m modelFile) weights() linear.Weights {
	return linear.Weights{Classes: m.Classes, Coef: m.Coef, Intercept: m.Intercept}
}

// modelDecoder builds a classifier from a decoded model file.
type modelDecoder func(m modelFile) (inference.Model, error)

var modelDecoders = map[string]modelDecoder{
	KindLogistic:  decodeLogistic,
	KindLinearSVC: decodeLinearSVC,
}

// ModelKinds returns the registered model kinds, sorted.
func ModelKinds() []string {
	kinds := make([]string, 0, len(modelDecoders))
	for k := range modelDecoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func decodeLogistic(m modelFile) (inference.Model, error) {
	if len(m.Platt) > 0 {
		return nil, fmt.Errorf("platt parameters are not valid for a %s model", KindLogistic)
	}
	return linear.NewLogistic(m.weights(), m.MultiClass)
}

func decodeLinearSVC(m modelFile) (inference.Model, error) {
	svc, err := linear.NewSVC(m.weights())
	if err != nil {
		return nil, err
	}
	if len(m.Platt) == 0 {
		return svc, nil
	}
	platt := make([]linear.Platt, len(m.Platt))
	for i, p := range m.Platt {
		platt[i] = linear.Platt{A: p.A, B: p.B}
	}
	return linear.NewCalibratedSVC(svc, platt)
}

// parseModel validates raw model.json. unsupported is set when the file is
// well-formed but names a kind no decoder handles.
func parseModel(raw []byte) (mf modelFile, model inference.Model, unsupported bool, err error) {
	if err := validateJSON("model", modelSchema, raw); err != nil {
		return modelFile{}, nil, false, err
	}
	if err := json.Unmarshal(raw, &mf); err != nil {
		return modelFile{}, nil, false, fmt.Errorf("decode model: %w", err)
	}
	decode, ok := modelDecoders[mf.Kind]
	if !ok {
		return mf, nil, true, fmt.Errorf("model kind %q is not one of %v", mf.Kind, ModelKinds())
	}
	model, err = decode(mf)
	if err != nil {
		return mf, nil, false, fmt.Errorf("build %s model: %w", mf.Kind, err)
	}
	return mf, model, false, nil
}

// vectorizerFile is the on-disk form of vectorizer.json. Pointer fields
// distinguish an absent key from an explicit zero value.
type vectorizerFile struct {
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	Lowercase    *bool          `json:"lowercase"`
	StripAccents *string        `json:"strip_accents"`
	TokenPattern string         `json:"token_pattern"`
	NGramRange   []int          `json:"ngram_range"`
	StopWords    []string       `json:"stop_words"`
	SublinearTF  bool           `json:"sublinear_tf"`
	UseIDF       *bool          `json:"use_idf"`
	Norm         *string        `json:"norm"`
}

func (v vectorizerFile) config() textfeat.TFIDFConfig {
	cfg := textfeat.TFIDFConfig{
		Vocabulary:   v.Vocabulary,
		IDF:          v.IDF,
		Lowercase:    true,
		StripAccents: textfeat.StripAccentsNone,
		TokenPattern: v.TokenPattern,
		NGramMin:     1,
		NGramMax:     1,
		StopWords:    v.StopWords,
		SublinearTF:  v.SublinearTF,
		UseIDF:       true,
		Norm:         textfeat.NormL2,
	}
	if v.Lowercase != nil {
		cfg.Lowercase = *v.Lowercase
	}
	if v.StripAccents != nil {
		cfg.StripAccents = *v.StripAccents
	}
	if len(v.NGramRange) == 2 {
		cfg.NGramMin, cfg.NGramMax = v.NGramRange[0], v.NGramRange[1]
	}
	if v.UseIDF != nil {
		cfg.UseIDF = *v.UseIDF
	}
	if v.Norm != nil {
		cfg.Norm = *v.Norm
		if cfg.Norm == "none" {
			cfg.Norm = textfeat.NormNone
		}
	}
	return cfg
}

func parseVectorizer(raw []byte) (*textfeat.TFIDF, error) {
	if err := validateJSON("vectorizer", vectorizerSchema, raw); err != nil {
		return nil, err
	}
	var vf vectorizerFile
	if err := json.Unmarshal(raw, &vf); err != nil {
		return nil, fmt.Errorf("decode vectorizer: %w", err)
	}
	tfidf, err := textfeat.NewTFIDF(vf.config())
	if err != nil {
		return nil, fmt.Errorf("build vectorizer: %w", err)
	}
	return tfidf, nil
}

func parseLabels(raw []byte) (inference.LabelMap, error) {
	if err := validateJSON("labels", labelsSchema, raw); err != nil {
		return nil, err
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	labels := make(inference.LabelMap, len(byKey))
	for key, label := range byKey {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("label key %q: %w", key, err)
		}
		labels[id] = label
	}
	return labels, nil
}
