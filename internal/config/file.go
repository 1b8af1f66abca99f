package config

// StoreFile is the store section of the configuration file.
type StoreFile struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend,omitempty"`

	// Dir is the local store directory.
	Dir string `yaml:"dir,omitempty"`

	// CacheDir is where resolved artifacts are written.
	CacheDir string `yaml:"cacheDir,omitempty"`

	// Bucket, Region, Prefix and Endpoint configure the s3 backend.
	Bucket   string `yaml:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// ForcePathStyle addresses the bucket in the URL path.
	ForcePathStyle bool `yaml:"forcePathStyle,omitempty"`
}

// LogFile is the log section of the configuration file.
type LogFile struct {
	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`
}

// ReportFile is the report section of the configuration file.
type ReportFile struct {
	// Format is "none", "text", "json" or "markdown".
	Format string `yaml:"format,omitempty"`

	// File is the report destination. Empty means stdout.
	File string `yaml:"file,omitempty"`
}

// File represents the structure of the .basiccleaning configuration file.
type File struct {
	// Store configures the artifact store.
	Store StoreFile `yaml:"store,omitempty"`

	// OutputFile is the local file the cleaned dataset is written to.
	OutputFile string `yaml:"outputFile,omitempty"`

	// NAValues replaces the cell values read as missing.
	// The empty cell is always missing.
	NAValues []string `yaml:"naValues,omitempty"`

	// Log configures logging.
	Log LogFile `yaml:"log,omitempty"`

	// Report configures the run report.
	Report ReportFile `yaml:"report,omitempty"`
}
