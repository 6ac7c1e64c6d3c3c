package artifact

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxMemberSize caps each extracted archive member.
var maxMemberSize int64 = 256 << 20

// source gives read access to the files of one bundle, whether it is a
// directory or an archive.
type source interface {
	ReadFile(name string) ([]byte, error)
	Has(name string) bool
	// Path names a member file for error messages.
	Path(name string) string
	String() string
}

// openSource opens a bundle directory or a .tar.gz/.tgz/.zip archive.
func openSource(path string) (source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ErrLoad{Kind: KindMissing, Path: path, Err: err}
		}
		return nil, &ErrLoad{Kind: KindMissing, Path: path, Err: fmt.Errorf("stat bundle: %w", err)}
	}
	if info.IsDir() {
		return dirSource{root: path}, nil
	}

	lower := strings.ToLower(path)
	var extract func([]byte) (map[string][]byte, error)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		extract = extractTarGz
	case strings.HasSuffix(lower, ".zip"):
		extract = extractZip
	default:
		return nil, loadErr(KindUnsupported, path, "not a directory, .tar.gz, .tgz or .zip archive")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrLoad{Kind: KindMissing, Path: path, Err: fmt.Errorf("read archive: %w", err)}
	}
	files, err := extract(data)
	if err != nil {
		return nil, &ErrLoad{Kind: KindCorrupt, Path: path, Err: err}
	}
	return &archiveSource{path: path, files: files}, nil
}

type dirSource struct {
	root string
}

func (d dirSource) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, name))
}

func (d dirSource) Has(name string) bool {
	info, err := os.Stat(filepath.Join(d.root, name))
	return err == nil && info.Mode().IsRegular()
}

func (d dirSource) Path(name string) string {
	return filepath.Join(d.root, name)
}

func (d dirSource) String() string {
	return d.root
}

// archiveSource holds every regular file of an archive, keyed by base name.
// Base names must be unique within the archive.
type archiveSource struct {
	path  string
	files map[string][]byte
}

func (a *archiveSource) ReadFile(name string) ([]byte, error) {
	data, ok := a.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: a.Path(name), Err: fs.ErrNotExist}
	}
	return data, nil
}

func (a *archiveSource) Has(name string) bool {
	_, ok := a.files[name]
	return ok
}

func (a *archiveSource) Path(name string) string {
	return a.path + "!" + name
}

func (a *archiveSource) String() string {
	return a.path
}

func extractTarGz(data []byte) (map[string][]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		body, err := readLimited(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		if err := addMember(files, hdr.Name, body); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func extractZip(data []byte) (map[string][]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	files := make(map[string][]byte)
	for _, f := range r.File {
		if !f.Mode().IsRegular() {
			continue
		}
		body, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := addMember(files, f.Name, body); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return readLimited(rc)
}

func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxMemberSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxMemberSize {
		return nil, fmt.Errorf("member exceeds %d bytes", maxMemberSize)
	}
	return body, nil
}

func addMember(files map[string][]byte, name string, body []byte) error {
	base := path.Base(name)
	if _, dup := files[base]; dup {
		return fmt.Errorf("archive holds more than one %s (at %s)", base, name)
	}
	files[base] = body
	return nil
}
