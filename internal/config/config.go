package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COGDISTORT_"

// DefaultFile is read from the working directory when no config path is given.
const DefaultFile = "cogdistort.yaml"

type Config struct {
	Bundle   BundleConfig   `koanf:"bundle"`
	Store    StoreConfig    `koanf:"store"`
	Classify ClassifyConfig `koanf:"classify"`
	Report   ReportConfig   `koanf:"report"`
	Log      LogConfig      `koanf:"log"`
}

type BundleConfig struct {
	Path            string `koanf:"path"`
	VerifyChecksums bool   `koanf:"verify_checksums"`
}

type StoreConfig struct {
	// Path is the SQLite file. Empty means the XDG default.
	Path string `koanf:"path"`
}

type ClassifyConfig struct {
	Workers   int  `koanf:"workers"`
	Strict    bool `koanf:"strict"`
	KeepGoing bool `koanf:"keep_going"`
}

type ReportConfig struct {
	CSVPath    string `koanf:"csv_path"`
	ChartWidth int    `koanf:"chart_width"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func DefaultConfig() *Config {
	return &Config{
		Bundle: BundleConfig{
			Path:            "bundle",
			VerifyChecksums: true,
		},
		Classify: ClassifyConfig{
			Workers: 1,
		},
		Report: ReportConfig{
			CSVPath:    "resultados_clasificacion.csv",
			ChartWidth: 60,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: FormatConsole,
		},
	}
}

// Load layers defaults, the YAML file and the environment. An explicit path
// must exist; otherwise $COGDISTORT_CONFIG and then ./cogdistort.yaml are
// tried and skipped when absent.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFile
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// envKey maps COGDISTORT_<SECTION>_<KEY> to section.key. COGDISTORT_DB is
// an alias for store.path; COGDISTORT_CONFIG only selects the file.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	switch key {
	case "db":
		return "store.path"
	case "config":
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Bundle.Path) == "" {
		errs = append(errs, errors.New("bundle.path must not be empty"))
	}
	if c.Classify.Workers < 1 {
		errs = append(errs, fmt.Errorf("classify.workers must be at least 1, got %d", c.Classify.Workers))
	}
	if c.Report.ChartWidth < 20 {
		errs = append(errs, fmt.Errorf("report.chart_width must be at least 20, got %d", c.Report.ChartWidth))
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", FormatConsole, FormatJSON, c.Log.Format))
	}
	return errors.Join(errs...)
}
