package artifact

import (
	"errors"
	"fmt"
)

// Kind distinguishes artifact load failures.
type Kind string

const (
	KindMissing     Kind = "missing"
	KindCorrupt     Kind = "corrupt"
	KindUnsupported Kind = "unsupported"
	KindChecksum    Kind = "checksum"
)

// ErrChecksum marks a file whose SHA-256 digest does not match SHA256SUMS.
var ErrChecksum = errors.New("checksum verification failed")

// ErrLoad reports why a bundle could not be loaded. No partial bundle is
// ever returned alongside it.
type ErrLoad struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ErrLoad) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load bundle (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("load bundle (%s) %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ErrLoad) Unwrap() error { return e.Err }

// IsKind reports whether err is an *ErrLoad of the given kind.
func IsKind(err error, kind Kind) bool {
	var le *ErrLoad
	return errors.As(err, &le) && le.Kind == kind
}

func loadErr(kind Kind, path string, format string, args ...any) *ErrLoad {
	return &ErrLoad{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}
