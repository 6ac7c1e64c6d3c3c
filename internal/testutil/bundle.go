package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Labels of the fixture bundle, by class id.
const (
	LabelOvergeneralization = "overgeneralization"
	LabelAllOrNothing       = "all-or-nothing"
	LabelPersonalization    = "personalization"
)

// BundleFiles is the content of a fixture bundle before it is written.
// Each entry is marshalled to JSON; Extra entries are written verbatim and
// replace a generated file of the same name.
type BundleFiles struct {
	Manifest   map[string]any
	Model      map[string]any
	Vectorizer map[string]any
	Labels     map[string]string
	// Checksums adds a SHA256SUMS listing every written file.
	Checksums bool
	// Omit leaves the named files out of the bundle.
	Omit  []string
	Extra map[string]string
}

// DefaultBundle is a three-class multinomial logistic bundle over a four-term
// Spanish vocabulary. "siempre fracaso" predicts overgeneralization, "nunca"
// all-or-nothing and "culpa" personalization.
func DefaultBundle() BundleFiles {
	return BundleFiles{
		Manifest: map[string]any{
			"format_version": "1.0.0",
			"name":           "fixture",
			"description":    "test fixture bundle",
			"files": map[string]any{
				"model":      "model.json",
				"vectorizer": "vectorizer.json",
				"labels":     "labels.json",
			},
		},
		Model: map[string]any{
			"kind":    "logistic",
			"classes": []int{0, 1, 2},
			"coef": [][]float64{
				{2, 1, 0, 0},
				{0, 0, 2, 0},
				{0, 0, 0, 2},
			},
			"intercept":   []float64{0, 0, 0},
			"multi_class": "multinomial",
		},
		Vectorizer: map[string]any{
			"vocabulary":    map[string]int{"siempre": 0, "fracaso": 1, "nunca": 2, "culpa": 3},
			"idf":           []float64{1, 1, 1, 1},
			"lowercase":     true,
			"strip_accents": "unicode",
			"ngram_range":   []int{1, 1},
			"sublinear_tf":  false,
			"use_idf":       true,
			"norm":          "l2",
		},
		Labels: map[string]string{
			"0": LabelOvergeneralization,
			"1": LabelAllOrNothing,
			"2": LabelPersonalization,
		},
		Checksums: true,
	}
}

// Render returns the bundle files keyed by name.
func (b BundleFiles) Render(t testing.TB) map[string][]byte {
	t.Helper()

	files := map[string][]byte{}
	add := func(name string, v any) {
		if v == nil {
			return
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		files[name] = data
	}
	add("manifest.json", b.Manifest)
	add(fileName(b.Manifest, "model", "model.json"), b.Model)
	add(fileName(b.Manifest, "vectorizer", "vectorizer.json"), b.Vectorizer)
	if b.Labels != nil {
		add(fileName(b.Manifest, "labels", "labels.json"), b.Labels)
	}
	for _, name := range b.Omit {
		delete(files, name)
	}
	for name, body := range b.Extra {
		files[name] = []byte(body)
	}

	if b.Checksums {
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		var sb strings.Builder
		for _, name := range names {
			sum := sha256.Sum256(files[name])
			fmt.Fprintf(&sb, "%s  %s\n", hex.EncodeToString(sum[:]), name)
		}
		files["SHA256SUMS"] = []byte(sb.String())
	}
	return files
}

func fileName(manifest map[string]any, key, def string) string {
	files, ok := manifest["files"].(map[string]any)
	if !ok {
		return def
	}
	if name, ok := files[key].(string); ok && name != "" {
		return name
	}
	return def
}

// WriteBundleDir writes b into a new temporary directory and returns its path.
func WriteBundleDir(t testing.TB, b BundleFiles) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "bundle")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create bundle dir: %v", err)
	}
	for name, data := range b.Render(t) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// WriteBundleTarGz writes b as a gzipped tarball whose entries sit under a
// top-level directory, and returns the archive path.
func WriteBundleTarGz(t testing.TB, b BundleFiles) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	files := b.Render(t)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, name := range sortedNames(files) {
		data := files[name]
		hdr := &tar.Header{Name: "bundle/" + name, Mode: 0o644, Size: int64(len(data)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			t.Fatalf("tar write %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return path
}

// WriteBundleZip writes b as a zip archive and returns its path.
func WriteBundleZip(t testing.TB, b BundleFiles) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	files := b.Render(t)
	zw := zip.NewWriter(f)
	for _, name := range sortedNames(files) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func sortedNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
