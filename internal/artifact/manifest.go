package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ManifestFile is the entry point of every bundle.
const ManifestFile = "manifest.json"

// SupportedMajor is the only bundle format major version this build reads.
const SupportedMajor = "v1"

// Default artifact file names, used when the manifest omits them.
const (
	DefaultModelFile      = "model.json"
	DefaultVectorizerFile = "vectorizer.json"
	DefaultLabelsFile     = "labels.json"
)

// Manifest describes a bundle and names its artifact files.
type Manifest struct {
	FormatVersion string `json:"format_version"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	Files         Files  `json:"files"`
}

// Files names the artifact files inside a bundle.
type Files struct {
	Model      string `json:"model,omitempty"`
	Vectorizer string `json:"vectorizer,omitempty"`
	Labels     string `json:"labels,omitempty"`
}

func (f *Files) applyDefaults() {
	if f.Model == "" {
		f.Model = DefaultModelFile
	}
	if f.Vectorizer == "" {
		f.Vectorizer = DefaultVectorizerFile
	}
	if f.Labels == "" {
		f.Labels = DefaultLabelsFile
	}
}

// names returns the artifact file names in load order.
func (f Files) names() []string {
	return []string{f.Model, f.Vectorizer, f.Labels}
}

func parseManifest(raw []byte) (Manifest, error) {
	if err := validateJSON("manifest", manifestSchema, raw); err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	m.Files.applyDefaults()
	return m, nil
}

// canonicalVersion returns v with the "v" prefix semver expects.
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// checkFormatVersion accepts any valid semver whose major is SupportedMajor.
func checkFormatVersion(v string) (unsupported bool, err error) {
	cv := canonicalVersion(v)
	if !semver.IsValid(cv) {
		return false, fmt.Errorf("format_version %q is not a semantic version", v)
	}
	if major := semver.Major(cv); major != SupportedMajor {
		return true, fmt.Errorf("format_version %s has major %s, want %s", v, major, SupportedMajor)
	}
	return false, nil
}
