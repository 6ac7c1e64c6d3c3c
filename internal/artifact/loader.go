// Package artifact loads persisted classifier bundles (vectorizer, model and
// label map) from a directory or archive into an immutable inference.Bundle.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/linear"
)

// Checksum states reported by Info.
const (
	ChecksumsVerified = "verified"
	ChecksumsAbsent   = "absent"
	ChecksumsSkipped  = "skipped"
)

// Options controls bundle loading.
type Options struct {
	// VerifyChecksums checks every artifact against SHA256SUMS when the
	// bundle ships one.
	VerifyChecksums bool
	// RequireChecksums fails the load when SHA256SUMS is absent.
	RequireChecksums bool
	Logger           *zap.Logger
}

// Info describes a loaded bundle.
type Info struct {
	Source        string               `json:"source"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	FormatVersion string               `json:"format_version"`
	ModelKind     string               `json:"model_kind"`
	Calibrated    bool                 `json:"calibrated"`
	Capability    inference.Capability `json:"capability"`
	Classes       []int                `json:"classes"`
	Labels        inference.LabelMap   `json:"labels"`
	MissingLabels []int                `json:"missing_labels,omitempty"`
	Features      int                  `json:"features"`
	Checksums     string               `json:"checksums"`
}

// Loaded is the result of a successful Load.
type Loaded struct {
	Bundle   *inference.Bundle
	Manifest Manifest
	Info     Info
}

// Load reads, validates and assembles the bundle at path. On failure it
// returns an *ErrLoad and no bundle.
func Load(path string, opts Options) (*Loaded, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := openSource(path)
	if err != nil {
		return nil, err
	}

	manifestRaw, err := readMember(src, ManifestFile)
	if err != nil {
		return nil, err
	}
	manifest, err := parseManifest(manifestRaw)
	if err != nil {
		return nil, &ErrLoad{Kind: KindCorrupt, Path: src.Path(ManifestFile), Err: err}
	}
	if unsupported, err := checkFormatVersion(manifest.FormatVersion); err != nil {
		kind := KindCorrupt
		if unsupported {
			kind = KindUnsupported
		}
		return nil, &ErrLoad{Kind: kind, Path: src.Path(ManifestFile), Err: err}
	}

	raw := make(map[string][]byte, 3)
	for _, name := range manifest.Files.names() {
		data, err := readMember(src, name)
		if err != nil {
			return nil, err
		}
		raw[name] = data
	}

	checksums, err := verifyMembers(src, opts, manifestRaw, raw)
	if err != nil {
		return nil, err
	}

	mf, model, unsupported, err := parseModel(raw[manifest.Files.Model])
	if err != nil {
		kind := KindCorrupt
		if unsupported {
			kind = KindUnsupported
		}
		return nil, &ErrLoad{Kind: kind, Path: src.Path(manifest.Files.Model), Err: err}
	}
	tfidf, err := parseVectorizer(raw[manifest.Files.Vectorizer])
	if err != nil {
		return nil, &ErrLoad{Kind: KindCorrupt, Path: src.Path(manifest.Files.Vectorizer), Err: err}
	}
	labels, err := parseLabels(raw[manifest.Files.Labels])
	if err != nil {
		return nil, &ErrLoad{Kind: KindCorrupt, Path: src.Path(manifest.Files.Labels), Err: err}
	}

	features := mf.weights().NumFeatures()
	if features != tfidf.Dim() {
		return nil, loadErr(KindCorrupt, src.String(),
			"model expects %d features but the vectorizer produces %d", features, tfidf.Dim())
	}

	missing := missingLabels(mf.Classes, labels)
	if len(missing) > 0 {
		logger.Warn("classes without labels",
			zap.String("bundle", src.String()),
			zap.Ints("class_ids", missing))
	}

	bundle := inference.NewBundle(model, tfidf, labels)
	_, calibrated := model.(*linear.CalibratedSVC)
	info := Info{
		Source:        src.String(),
		Name:          manifest.Name,
		Description:   manifest.Description,
		FormatVersion: manifest.FormatVersion,
		ModelKind:     mf.Kind,
		Calibrated:    calibrated,
		Capability:    bundle.Capability(),
		Classes:       append([]int(nil), mf.Classes...),
		Labels:        bundle.Labels(),
		MissingLabels: missing,
		Features:      features,
		Checksums:     checksums,
	}

	logger.Info("bundle loaded",
		zap.String("bundle", info.Source),
		zap.String("name", info.Name),
		zap.String("kind", info.ModelKind),
		zap.String("capability", string(info.Capability)),
		zap.Int("features", info.Features),
		zap.Int("classes", len(info.Classes)))

	return &Loaded{Bundle: bundle, Manifest: manifest, Info: info}, nil
}

// Inspect loads the bundle at path and returns its metadata.
func Inspect(path string, opts Options) (Info, error) {
	loaded, err := Load(path, opts)
	if err != nil {
		return Info{}, err
	}
	return loaded.Info, nil
}

func readMember(src source, name string) ([]byte, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		kind := KindCorrupt
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindMissing
		}
		return nil, &ErrLoad{Kind: kind, Path: src.Path(name), Err: err}
	}
	return data, nil
}

// verifyMembers checks the manifest and every artifact against SHA256SUMS.
// Each of them must be listed once the file is present.
func verifyMembers(src source, opts Options, manifestRaw []byte, raw map[string][]byte) (string, error) {
	if !src.Has(ChecksumFile) {
		if opts.RequireChecksums {
			return "", &ErrLoad{Kind: KindChecksum, Path: src.Path(ChecksumFile), Err: fmt.Errorf("%w: %s not found", ErrChecksum, ChecksumFile)}
		}
		return ChecksumsAbsent, nil
	}
	if !opts.VerifyChecksums && !opts.RequireChecksums {
		return ChecksumsSkipped, nil
	}

	sumsRaw, err := readMember(src, ChecksumFile)
	if err != nil {
		return "", err
	}
	sums := parseChecksums(sumsRaw)

	members := map[string][]byte{ManifestFile: manifestRaw}
	for name, data := range raw {
		members[name] = data
	}
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expected, ok := sums[name]
		if !ok {
			return "", &ErrLoad{Kind: KindChecksum, Path: src.Path(name), Err: fmt.Errorf("%w: no %s entry", ErrChecksum, ChecksumFile)}
		}
		if err := verifyChecksum(members[name], expected); err != nil {
			return "", &ErrLoad{Kind: KindChecksum, Path: src.Path(name), Err: err}
		}
	}
	return ChecksumsVerified, nil
}

// missingLabels lists model class ids with no entry in labels.
func missingLabels(classes []int, labels inference.LabelMap) []int {
	var missing []int
	for _, id := range classes {
		if _, ok := labels[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
