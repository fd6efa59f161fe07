// Package config loads breederbook settings from a YAML file overlaid with
// BREEDERBOOK_* environment variables and validates them before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	// SelfOwner is the importing breeder's name as written in owner columns.
	SelfOwner string  `yaml:"self_owner"`
	Storage   Storage `yaml:"storage"`
	Blob      Blob    `yaml:"blob"`
	Import    Import  `yaml:"import"`
	Logging   Logging `yaml:"logging"`
	Metrics   Metrics `yaml:"metrics"`
}

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `yaml:"driver"` // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Blob selects where source workbooks and run reports live.
type Blob struct {
	Driver string `yaml:"driver"` // fs|s3|memory
	Root   string `yaml:"root"`
	S3     S3     `yaml:"s3"`
}

// S3 holds S3 or MinIO connection settings.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Import tunes ingestion.
type Import struct {
	Atomic     bool   `yaml:"atomic"`
	LinkOwners bool   `yaml:"link_owners"`
	ReportDir  string `yaml:"report_dir"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// Metrics configures the Prometheus Pushgateway export.
type Metrics struct {
	PushGateway string `yaml:"push_gateway"`
	Job         string `yaml:"job"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "breederbook.db"},
		Blob:    Blob{Driver: "fs", Root: "./blobdata", S3: S3{Region: "us-east-1"}},
		Import:  Import{ReportDir: "reports"},
		Logging: Logging{Level: "info", Format: "console"},
		Metrics: Metrics{Job: "breeder_import"},
	}
}

// Load reads path (optional; empty means defaults only), applies environment
// overrides from getenv and validates the result. Pass os.Getenv in
// production.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays BREEDERBOOK_* variables.
//
//	BREEDERBOOK_SELF_OWNER
//	BREEDERBOOK_STORAGE_DRIVER: memory|sqlite|postgres
//	BREEDERBOOK_SQLITE_PATH, BREEDERBOOK_POSTGRES_DSN
//	BREEDERBOOK_BLOB_DRIVER: fs|s3|memory
//	BREEDERBOOK_BLOB_FS_ROOT
//	BREEDERBOOK_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PATH_STYLE
//	BREEDERBOOK_IMPORT_ATOMIC, BREEDERBOOK_IMPORT_LINK_OWNERS
//	BREEDERBOOK_LOG_LEVEL, BREEDERBOOK_LOG_FORMAT
//	BREEDERBOOK_PUSHGATEWAY_URL
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	var errs []error
	flag := func(name string, dst *bool) {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = b
	}

	str("BREEDERBOOK_SELF_OWNER", &cfg.SelfOwner)
	str("BREEDERBOOK_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("BREEDERBOOK_SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("BREEDERBOOK_POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("BREEDERBOOK_BLOB_DRIVER", &cfg.Blob.Driver)
	str("BREEDERBOOK_BLOB_FS_ROOT", &cfg.Blob.Root)
	str("BREEDERBOOK_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket)
	str("BREEDERBOOK_BLOB_S3_REGION", &cfg.Blob.S3.Region)
	str("BREEDERBOOK_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint)
	flag("BREEDERBOOK_BLOB_S3_PATH_STYLE", &cfg.Blob.S3.PathStyle)
	flag("BREEDERBOOK_IMPORT_ATOMIC", &cfg.Import.Atomic)
	flag("BREEDERBOOK_IMPORT_LINK_OWNERS", &cfg.Import.LinkOwners)
	str("BREEDERBOOK_LOG_LEVEL", &cfg.Logging.Level)
	str("BREEDERBOOK_LOG_FORMAT", &cfg.Logging.Format)
	str("BREEDERBOOK_PUSHGATEWAY_URL", &cfg.Metrics.PushGateway)
	return errors.Join(errs...)
}

// Validate reports every configuration problem found.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
