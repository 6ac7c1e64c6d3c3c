package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/testutil"
)

func verifying() Options {
	return Options{VerifyChecksums: true}
}

func TestLoad_Directory(t *testing.T) {
	dir := testutil.WriteBundleDir(t, testutil.DefaultBundle())

	loaded, err := Load(dir, verifying())
	require.NoError(t, err)

	info := loaded.Info
	assert.Equal(t, "fixture", info.Name)
	assert.Equal(t, "1.0.0", info.FormatVersion)
	assert.Equal(t, KindLogistic, info.ModelKind)
	assert.Equal(t, inference.CapabilityProbability, info.Capability)
	assert.Equal(t, []int{0, 1, 2}, info.Classes)
	assert.Equal(t, 4, info.Features)
	assert.Equal(t, ChecksumsVerified, info.Checksums)
	assert.Empty(t, info.MissingLabels)

	pred, err := inference.Classify(loaded.Bundle, "Siempre fracaso")
	require.NoError(t, err)
	assert.Equal(t, testutil.LabelOvergeneralization, pred.Label)
	require.NotNil(t, pred.Confidence)
	assert.InDelta(t, 80.66, *pred.Confidence, 0.01)
}

func TestLoad_Archives(t *testing.T) {
	tests := []struct {
		name  string
		write func(testing.TB, testutil.BundleFiles) string
	}{
		{"tar.gz", testutil.WriteBundleTarGz},
		{"zip", testutil.WriteBundleZip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.write(t, testutil.DefaultBundle())

			loaded, err := Load(path, verifying())
			require.NoError(t, err)
			assert.Equal(t, path, loaded.Info.Source)

			pred, err := inference.Classify(loaded.Bundle, "es mi culpa")
			require.NoError(t, err)
			assert.Equal(t, testutil.LabelPersonalization, pred.Label)
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMissing))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_UnsupportedFileType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.rar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Load(path, Options{})
	assert.True(t, IsKind(err, KindUnsupported))
}

func TestLoad_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.tgz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err := Load(path, Options{})
	assert.True(t, IsKind(err, KindCorrupt))
}

func TestLoad_MissingMember(t *testing.T) {
	for _, name := range []string{"manifest.json", "model.json", "vectorizer.json", "labels.json"} {
		t.Run(name, func(t *testing.T) {
			b := testutil.DefaultBundle()
			b.Omit = []string{name}
			dir := testutil.WriteBundleDir(t, b)

			_, err := Load(dir, verifying())
			var le *ErrLoad
			require.ErrorAs(t, err, &le)
			assert.Equal(t, KindMissing, le.Kind)
			assert.Equal(t, filepath.Join(dir, name), le.Path)
			assert.ErrorIs(t, err, fs.ErrNotExist)
		})
	}
}

func TestLoad_MissingMemberInArchive(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Omit = []string{"vectorizer.json"}
	path := testutil.WriteBundleZip(t, b)

	_, err := Load(path, verifying())
	assert.True(t, IsKind(err, KindMissing))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_FormatVersion(t *testing.T) {
	tests := []struct {
		version string
		kind    Kind
	}{
		{"1.4.2", ""},
		{"v1.0.0", ""},
		{"2.0.0", KindUnsupported},
		{"0.9.0", KindUnsupported},
		{"one", KindCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			b := testutil.DefaultBundle()
			b.Manifest["format_version"] = tt.version
			dir := testutil.WriteBundleDir(t, b)

			_, err := Load(dir, verifying())
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testutil.BundleFiles)
	}{
		{"manifest without name", func(b *testutil.BundleFiles) { delete(b.Manifest, "name") }},
		{"manifest file with path", func(b *testutil.BundleFiles) {
			b.Manifest["files"] = map[string]any{"model": "../model.json"}
		}},
		{"model without coef", func(b *testutil.BundleFiles) { delete(b.Model, "coef") }},
		{"model with one class", func(b *testutil.BundleFiles) { b.Model["classes"] = []int{0} }},
		{"model with unknown multi_class", func(b *testutil.BundleFiles) { b.Model["multi_class"] = "crammer" }},
		{"negative vocabulary index", func(b *testutil.BundleFiles) {
			b.Vectorizer["vocabulary"] = map[string]int{"siempre": -1}
		}},
		{"unknown norm", func(b *testutil.BundleFiles) { b.Vectorizer["norm"] = "max" }},
		{"non-numeric label key", func(b *testutil.BundleFiles) {
			b.Labels = map[string]string{"zero": "x"}
		}},
		{"empty label", func(b *testutil.BundleFiles) { b.Labels["1"] = "" }},
		{"ragged coef", func(b *testutil.BundleFiles) {
			b.Model["coef"] = [][]float64{{1, 0, 0, 0}, {0, 1}, {0, 0, 1, 0}}
		}},
		{"intercept length", func(b *testutil.BundleFiles) { b.Model["intercept"] = []float64{0, 0} }},
		{"idf length", func(b *testutil.BundleFiles) { b.Vectorizer["idf"] = []float64{1, 1} }},
		{"platt on logistic", func(b *testutil.BundleFiles) {
			b.Model["platt"] = []map[string]float64{{"a": -1, "b": 0}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.DefaultBundle()
			b.Checksums = false
			tt.mutate(&b)
			dir := testutil.WriteBundleDir(t, b)

			loaded, err := Load(dir, Options{})
			assert.Nil(t, loaded)
			assert.True(t, IsKind(err, KindCorrupt), "got %v", err)
		})
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Checksums = false
	b.Extra = map[string]string{"model.json": "{not json"}
	dir := testutil.WriteBundleDir(t, b)

	_, err := Load(dir, Options{})
	var le *ErrLoad
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindCorrupt, le.Kind)
	assert.Equal(t, filepath.Join(dir, "model.json"), le.Path)
}

func TestLoad_UnknownModelKind(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Model["kind"] = "random_forest"
	dir := testutil.WriteBundleDir(t, b)

	_, err := Load(dir, verifying())
	assert.True(t, IsKind(err, KindUnsupported))
	assert.Contains(t, err.Error(), "random_forest")
}

func TestLoad_DimensionMismatch(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Model["coef"] = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	dir := testutil.WriteBundleDir(t, b)

	_, err := Load(dir, verifying())
	assert.True(t, IsKind(err, KindCorrupt))
	assert.Contains(t, err.Error(), "3 features")
}

func TestLoad_LinearSVC(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Model["kind"] = KindLinearSVC
	delete(b.Model, "multi_class")
	dir := testutil.WriteBundleDir(t, b)

	info, err := Inspect(dir, verifying())
	require.NoError(t, err)
	assert.Equal(t, inference.CapabilityMargin, info.Capability)
	assert.False(t, info.Calibrated)
}

func TestLoad_CalibratedSVC(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Model["kind"] = KindLinearSVC
	delete(b.Model, "multi_class")
	b.Model["platt"] = []map[string]float64{{"a": -2, "b": 0}, {"a": -2, "b": 0}, {"a": -2, "b": 0}}
	dir := testutil.WriteBundleDir(t, b)

	loaded, err := Load(dir, verifying())
	require.NoError(t, err)
	assert.True(t, loaded.Info.Calibrated)
	assert.Equal(t, inference.CapabilityProbability, loaded.Info.Capability)

	pred, err := inference.Classify(loaded.Bundle, "nunca")
	require.NoError(t, err)
	assert.Equal(t, testutil.LabelAllOrNothing, pred.Label)
	require.NotNil(t, pred.Confidence)
}

func TestLoad_Checksums(t *testing.T) {
	t.Run("tampered file", func(t *testing.T) {
		dir := testutil.WriteBundleDir(t, testutil.DefaultBundle())
		require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.json"), []byte(`{"0":"x","1":"y","2":"z"}`), 0o644))

		_, err := Load(dir, verifying())
		assert.True(t, IsKind(err, KindChecksum))
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("tampered file with verification off", func(t *testing.T) {
		dir := testutil.WriteBundleDir(t, testutil.DefaultBundle())
		require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.json"), []byte(`{"0":"x","1":"y","2":"z"}`), 0o644))

		loaded, err := Load(dir, Options{})
		require.NoError(t, err)
		assert.Equal(t, ChecksumsSkipped, loaded.Info.Checksums)
	})

	t.Run("unlisted file", func(t *testing.T) {
		b := testutil.DefaultBundle()
		b.Checksums = false
		b.Extra = map[string]string{"SHA256SUMS": "deadbeef  model.json\n"}
		dir := testutil.WriteBundleDir(t, b)

		_, err := Load(dir, verifying())
		assert.True(t, IsKind(err, KindChecksum))
	})

	t.Run("absent", func(t *testing.T) {
		b := testutil.DefaultBundle()
		b.Checksums = false
		dir := testutil.WriteBundleDir(t, b)

		loaded, err := Load(dir, verifying())
		require.NoError(t, err)
		assert.Equal(t, ChecksumsAbsent, loaded.Info.Checksums)

		_, err = Load(dir, Options{RequireChecksums: true})
		assert.True(t, IsKind(err, KindChecksum))
	})
}

func TestLoad_MissingLabelsWarns(t *testing.T) {
	b := testutil.DefaultBundle()
	delete(b.Labels, "2")
	dir := testutil.WriteBundleDir(t, b)

	core, logs := observer.New(zapcore.WarnLevel)
	loaded, err := Load(dir, Options{VerifyChecksums: true, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, loaded.Info.MissingLabels)

	entries := logs.FilterMessage("classes without labels").All()
	require.Len(t, entries, 1)

	_, err = inference.Classify(loaded.Bundle, "culpa")
	var unknown *inference.ErrUnknownClass
	assert.True(t, errors.As(err, &unknown))
}

func TestLoad_DefaultFileNames(t *testing.T) {
	b := testutil.DefaultBundle()
	delete(b.Manifest, "files")
	dir := testutil.WriteBundleDir(t, b)

	loaded, err := Load(dir, verifying())
	require.NoError(t, err)
	assert.Equal(t, DefaultModelFile, loaded.Manifest.Files.Model)
}

func TestLoad_CustomFileNames(t *testing.T) {
	b := testutil.DefaultBundle()
	b.Manifest["files"] = map[string]any{"model": "svm.json", "vectorizer": "tfidf.json", "labels": "names.json"}
	dir := testutil.WriteBundleDir(t, b)

	loaded, err := Load(dir, verifying())
	require.NoError(t, err)
	assert.Equal(t, "svm.json", loaded.Manifest.Files.Model)
}

func TestModelKinds(t *testing.T) {
	assert.Equal(t, []string{KindLinearSVC, KindLogistic}, ModelKinds())
}
