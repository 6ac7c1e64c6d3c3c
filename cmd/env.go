package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cogdistort/internal/artifact"
	"github.com/abhisek/cogdistort/internal/config"
	"github.com/abhisek/cogdistort/internal/logging"
	"github.com/abhisek/cogdistort/internal/store"
)

const defaultTermWidth = 100

// appEnv is the resolved configuration and logger shared by every command.
type appEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

// setup loads the config file and environment, applies the global flags on
// top and validates the result.
func setup(cmd *cobra.Command) (*appEnv, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if p, _ := cmd.Flags().GetString("bundle"); p != "" {
		cfg.Bundle.Path = p
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &appEnv{
		cfg:    cfg,
		logger: logging.NewLoggerTo(cfg.Log, cmd.ErrOrStderr()),
	}, nil
}

func (e *appEnv) loadBundle() (*artifact.Loaded, error) {
	return artifact.Load(e.cfg.Bundle.Path, artifact.Options{
		VerifyChecksums: e.cfg.Bundle.VerifyChecksums,
		Logger:          e.logger,
	})
}

// openStore opens the run history database: config/--db path first, then
// COGDISTORT_DB, then the XDG default.
func (e *appEnv) openStore() (*store.Store, error) {
	dbPath := e.cfg.Store.Path
	if dbPath != "" {
		if err := store.EnsureDir(dbPath); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	} else {
		var err error
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// styled wraps w so lipgloss output is downsampled to what w supports. Pipes
// and files get plain text.
func styled(w io.Writer) io.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// termWidth returns the width of w when it is a terminal.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		if width, _, err := term.GetSize(f.Fd()); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}
