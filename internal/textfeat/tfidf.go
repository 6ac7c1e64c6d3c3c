package textfeat

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTokenPattern matches runs of two or more word characters.
const DefaultTokenPattern = `[\p{L}\p{M}\p{N}_]{2,}`

// Accent stripping modes.
const (
	StripAccentsNone    = ""
	StripAccentsUnicode = "unicode"
	StripAccentsASCII   = "ascii"
)

// Normalization modes applied after weighting.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = ""
)

// TFIDFConfig holds the persisted vectorizer parameters.
type TFIDFConfig struct {
	Vocabulary   map[string]int
	IDF          []float64
	Lowercase    bool
	StripAccents string
	TokenPattern string
	NGramMin     int
	NGramMax     int
	StopWords    []string
	SublinearTF  bool
	UseIDF       bool
	Norm         string
}

// TFIDF is a fitted term-frequency / inverse-document-frequency vectorizer.
// It is read-only after construction and safe for concurrent use.
type TFIDF struct {
	vocab        map[string]int
	idf          []float64
	lowercase    bool
	stripAccents string
	token        *regexp.Regexp
	ngramMin     int
	ngramMax     int
	stop         map[string]struct{}
	sublinear    bool
	useIDF       bool
	norm         string
}

var _ Transformer = (*TFIDF)(nil)

// NewTFIDF validates cfg and builds a vectorizer.
func NewTFIDF(cfg TFIDFConfig) (*TFIDF, error) {
	if len(cfg.Vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	dim := len(cfg.Vocabulary)
	seen := make([]bool, dim)
	for term, idx := range cfg.Vocabulary {
		if idx < 0 || idx >= dim {
			return nil, fmt.Errorf("term %q has column %d outside [0, %d)", term, idx, dim)
		}
		if seen[idx] {
			return nil, fmt.Errorf("column %d is assigned to more than one term", idx)
		}
		seen[idx] = true
	}
	if cfg.UseIDF && len(cfg.IDF) != dim {
		return nil, fmt.Errorf("idf has %d weights, vocabulary has %d terms", len(cfg.IDF), dim)
	}

	switch cfg.StripAccents {
	case StripAccentsNone, StripAccentsUnicode, StripAccentsASCII:
	default:
		return nil, fmt.Errorf("unknown strip_accents mode %q", cfg.StripAccents)
	}
	switch cfg.Norm {
	case NormL2, NormL1, NormNone:
	default:
		return nil, fmt.Errorf("unknown norm %q", cfg.Norm)
	}

	pattern := cfg.TokenPattern
	if pattern == "" {
		pattern = DefaultTokenPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile token pattern: %w", err)
	}

	nmin, nmax := cfg.NGramMin, cfg.NGramMax
	if nmin == 0 && nmax == 0 {
		nmin, nmax = 1, 1
	}
	if nmin < 1 || nmax < nmin {
		return nil, fmt.Errorf("invalid ngram range [%d, %d]", nmin, nmax)
	}

	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[w] = struct{}{}
	}

	return &TFIDF{
		vocab:        cfg.Vocabulary,
		idf:          cfg.IDF,
		lowercase:    cfg.Lowercase,
		stripAccents: cfg.StripAccents,
		token:        re,
		ngramMin:     nmin,
		ngramMax:     nmax,
		stop:         stop,
		sublinear:    cfg.SublinearTF,
		useIDF:       cfg.UseIDF,
		norm:         cfg.Norm,
	}, nil
}

// Dim returns the number of feature columns.
func (t *TFIDF) Dim() int {
	return len(t.vocab)
}

// Transform maps text to its weighted, normalised feature vector. Terms
// outside the vocabulary are ignored; text without known terms yields a
// zero vector.
func (t *TFIDF) Transform(text string) (Vector, error) {
	counts := make(map[int]float64)
	for _, term := range t.Terms(text) {
		if idx, ok := t.vocab[term]; ok {
			counts[idx]++
		}
	}

	v := Vector{
		Dim:     len(t.vocab),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)

	for _, idx := range v.Indices {
		tf := counts[idx]
		if t.sublinear {
			tf = 1 + math.Log(tf)
		}
		if t.useIDF {
			tf *= t.idf[idx]
		}
		v.Values = append(v.Values, tf)
	}

	normalize(v.Values, t.norm)
	return v, nil
}

// Terms returns the n-gram terms extracted from text, in order of
// appearance, before vocabulary lookup.
func (t *TFIDF) Terms(text string) []string {
	text = t.preprocess(text)

	tokens := t.token.FindAllString(text, -1)
	if len(t.stop) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, skip := t.stop[tok]; !skip {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if t.ngramMin == 1 && t.ngramMax == 1 {
		return tokens
	}

	var terms []string
	for n := t.ngramMin; n <= t.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func (t *TFIDF) preprocess(text string) string {
	if t.lowercase {
		text = strings.ToLower(text)
	}
	switch t.stripAccents {
	case StripAccentsUnicode:
		text = stripUnicodeAccents(text)
	case StripAccentsASCII:
		text = stripToASCII(text)
	}
	return text
}

func stripUnicodeAccents(s string) string {
	tr := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

func stripToASCII(s string) string {
	tr := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

func normalize(values []float64, mode string) {
	var total float64
	switch mode {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
