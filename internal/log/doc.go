// Package log builds the slog loggers used by basiccleaning.
//
// Loggers are created once by the command and injected into the pipeline
// and the artifact stores. Every logger wraps its handler in a
// SecureHandler, which masks attribute values that look like credentials:
//   - AWS access key ids, secret keys and session tokens
//   - Authorization headers and bearer tokens
//   - passwords, secrets and private keys
//
// Artifact digests and run ids are not masked.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, "text")
//	logger.Info("downloading input artifact", "artifact", "sample.csv:latest")
package log
