package config

import (
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "basiccleaning"

	// DefaultOutputFile is the local file the cleaned dataset is written to
	// before it is published.
	DefaultOutputFile = "clean_sample.csv"

	// BackendLocal stores artifacts on the local filesystem.
	BackendLocal = "local"

	// BackendS3 stores artifacts in an S3 bucket.
	BackendS3 = "s3"

	// LogFormatText writes human-readable log lines.
	LogFormatText = "text"

	// LogFormatJSON writes one JSON object per log line.
	LogFormatJSON = "json"

	// ReportFormatNone disables the run report.
	ReportFormatNone = "none"

	// ReportFormatText writes a plain text run report.
	ReportFormatText = "text"

	// ReportFormatJSON writes the run as JSON.
	ReportFormatJSON = "json"

	// ReportFormatMarkdown writes a GitHub Flavored Markdown run report.
	ReportFormatMarkdown = "markdown"
)

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	// Backend is BackendLocal or BackendS3.
	Backend string

	// Dir is the root directory of the local store.
	// Defaults to the XDG data directory.
	Dir string

	// CacheDir is where resolved artifacts are materialized.
	// Defaults to the XDG cache directory.
	CacheDir string

	// Bucket is the S3 bucket. Required for BackendS3.
	Bucket string

	// Region is the AWS region. Falls back to AWS_REGION.
	Region string

	// Prefix is prepended to every S3 object key.
	Prefix string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint string

	// ForcePathStyle addresses the bucket in the URL path.
	ForcePathStyle bool
}

// Config holds all configuration for a cleaning run.
// It is populated from CLI flags and the optional configuration file, then
// passed down explicitly rather than kept in global state.
type Config struct {
	// InputArtifact is the store reference of the raw CSV.
	InputArtifact string

	// OutputArtifact is the name of the produced artifact.
	OutputArtifact string

	// OutputType is the category tag of the produced artifact.
	OutputType string

	// OutputDescription is free text stored with the produced artifact.
	OutputDescription string

	// MinPrice is the inclusive lower price bound.
	MinPrice float64

	// MaxPrice is the inclusive upper price bound.
	// It is not required to be greater than MinPrice; inverted bounds
	// produce an empty dataset.
	MaxPrice float64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .basiccleaning is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// OutputFile is the local file the cleaned dataset is written to.
	OutputFile string

	// NAValues overrides the cell values read as missing.
	// Nil keeps the pandas-compatible defaults.
	NAValues []string

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// Store configures the artifact store.
	Store StoreConfig

	// ReportFormat selects the run report written after the run.
	ReportFormat string

	// ReportFile is where the report is written. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputFile:   DefaultOutputFile,
		LogFormat:    LogFormatText,
		ReportFormat: ReportFormatNone,
		Store: StoreConfig{
			Backend:  BackendLocal,
			Dir:      XDGDataDir(),
			CacheDir: XDGCacheDir(),
		},
	}
}

// XDGDataDir returns the XDG data directory for basiccleaning.
// On Linux: ~/.local/share/basiccleaning
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for basiccleaning.
// On Linux: ~/.config/basiccleaning
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for basiccleaning.
// On Linux: ~/.cache/basiccleaning
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration of a cleaning run and returns the
// first problem found.
//
// MinPrice and MaxPrice are not compared: inverted bounds are valid.
func (c *Config) Validate() error {
	if c.InputArtifact == "" {
		return ErrNoInputArtifact
	}
	if c.OutputArtifact == "" {
		return ErrNoOutputArtifact
	}
	if c.OutputType == "" {
		return ErrNoOutputType
	}
	if c.OutputFile == "" {
		return ErrNoOutputFile
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if !slices.Contains([]string{LogFormatText, LogFormatJSON}, c.LogFormat) {
		return ErrInvalidLogFormat
	}
	if !slices.Contains([]string{ReportFormatNone, ReportFormatText, ReportFormatJSON, ReportFormatMarkdown}, c.ReportFormat) {
		return ErrInvalidReportFormat
	}
	return nil
}

// ValidateStore checks only the store settings. Commands that operate on
// the store without running the cleaning step use it.
func (c *Config) ValidateStore() error {
	switch c.Store.Backend {
	case BackendLocal:
		if c.Store.Dir == "" {
			return ErrNoStoreDir
		}
	case BackendS3:
		if c.Store.Bucket == "" {
			return ErrNoBucket
		}
		if c.Store.CacheDir == "" {
			return ErrNoStoreDir
		}
	default:
		return ErrInvalidBackend
	}
	return nil
}

// Apply merges the settings of a configuration file into c.
// Empty values in f leave the current settings unchanged.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}

	if f.OutputFile != "" {
		c.OutputFile = f.OutputFile
	}
	if f.NAValues != nil {
		c.NAValues = f.NAValues
	}
	if f.Log.Format != "" {
		c.LogFormat = f.Log.Format
	}
	if f.Report.Format != "" {
		c.ReportFormat = f.Report.Format
	}
	if f.Report.File != "" {
		c.ReportFile = f.Report.File
	}

	s := f.Store
	if s.Backend != "" {
		c.Store.Backend = s.Backend
	}
	if s.Dir != "" {
		c.Store.Dir = s.Dir
	}
	if s.CacheDir != "" {
		c.Store.CacheDir = s.CacheDir
	}
	if s.Bucket != "" {
		c.Store.Bucket = s.Bucket
	}
	if s.Region != "" {
		c.Store.Region = s.Region
	}
	if s.Prefix != "" {
		c.Store.Prefix = s.Prefix
	}
	if s.Endpoint != "" {
		c.Store.Endpoint = s.Endpoint
	}
	if s.ForcePathStyle {
		c.Store.ForcePathStyle = true
	}
}
