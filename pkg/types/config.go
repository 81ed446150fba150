package types

import (
	"errors"
	"path/filepath"
	"time"
)

// Config holds the resolved settings for one LNRS database deployment.
// Zero-valued fields are filled by WithDefaults; DataDir has no default
// and must be supplied by the caller.
type Config struct {
	DataDir         string        `json:"data_dir" yaml:"data_dir"`
	DBFile          string        `json:"db_file" yaml:"db_file"`
	SnapshotDir     string        `json:"snapshot_dir" yaml:"snapshot_dir"`
	LogDir          string        `json:"log_dir" yaml:"log_dir"`
	LogLevel        string        `json:"log_level" yaml:"log_level"`
	LogFormat       string        `json:"log_format" yaml:"log_format"`
	RetainCount     int           `json:"retain_count" yaml:"retain_count"`
	SlowOpThreshold time.Duration `json:"slow_op_threshold" yaml:"slow_op_threshold"`
	VerifyTable     string        `json:"verify_table" yaml:"verify_table"`
}

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default values applied by WithDefaults.
const (
	DefaultDBFile          = "lnrs.db"
	DefaultLogLevel        = "info"
	DefaultRetainCount     = 10
	DefaultSlowOpThreshold = 5 * time.Second
)

// Config validation errors.
var (
	ErrDataDirEmpty       = errors.New("data directory must not be empty")
	ErrRetainCountInvalid = errors.New("retain count must be positive")
	ErrSlowOpInvalid      = errors.New("slow operation threshold must not be negative")
	ErrLogFormatUnknown   = errors.New("unknown log format")
)

// knownLogFormats lists the formats that Validate accepts.
var knownLogFormats = map[string]bool{
	LogFormatText: true,
	LogFormatJSON: true,
}

// WithDefaults returns a copy of the Config with every zero-valued field
// (except DataDir) replaced by its default. SnapshotDir and LogDir default
// to subdirectories of DataDir.
func (c Config) WithDefaults() Config {
	if c.DBFile == "" {
		c.DBFile = DefaultDBFile
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = filepath.Join(c.DataDir, "backups")
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.DataDir, "logs")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.RetainCount == 0 {
		c.RetainCount = DefaultRetainCount
	}
	if c.SlowOpThreshold == 0 {
		c.SlowOpThreshold = DefaultSlowOpThreshold
	}
	if c.VerifyTable == "" {
		c.VerifyTable = MeasureTable
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.RetainCount < 0 {
		return ErrRetainCountInvalid
	}
	if c.SlowOpThreshold < 0 {
		return ErrSlowOpInvalid
	}
	if c.LogFormat != "" && !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	return nil
}

// DatabasePath returns the full path of the live database file.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}
