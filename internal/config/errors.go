package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateStore. Callers can match them with errors.Is.
var (
	// ErrNoInputArtifact is returned when --input_artifact is empty.
	ErrNoInputArtifact = errors.New("no input artifact specified: use --input_artifact")

	// ErrNoOutputArtifact is returned when --output_artifact is empty.
	ErrNoOutputArtifact = errors.New("no output artifact specified: use --output_artifact")

	// ErrNoOutputType is returned when --output_type is empty.
	ErrNoOutputType = errors.New("no output type specified: use --output_type")

	// ErrNoOutputFile is returned when the local output file name is empty.
	ErrNoOutputFile = errors.New("output file name must not be empty")

	// ErrInvalidBackend is returned for an unknown store backend.
	ErrInvalidBackend = errors.New("invalid store backend: must be local or s3")

	// ErrNoStoreDir is returned when the store has no directory to work in.
	ErrNoStoreDir = errors.New("store directory must not be empty")

	// ErrNoBucket is returned when the s3 backend is selected without a bucket.
	ErrNoBucket = errors.New("s3 store requires a bucket")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be none, text, json or markdown")
)
