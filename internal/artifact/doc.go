// Package artifact provides versioned artifact storage for pipeline steps.
//
// An artifact is a named file with a type and a description. Every publish
// of new content under a name creates the next version (v0, v1, ...), and a
// reference such as "clean_sample.csv:latest" or "clean_sample.csv:v3"
// resolves to a local copy of that version.
//
// The package exposes a narrow interface so pipeline code never depends on a
// concrete backend:
//
//	Resolver.Resolve(ctx, ref)            -> local path
//	Publisher.Publish(ctx, path, meta)    -> Reference
//
// Three backends implement it:
//   - LocalStore: SQLite catalog (modernc.org/sqlite) plus lz4-compressed,
//     content-addressed blobs on the local filesystem
//   - S3Store: objects and a per-artifact JSON index in an S3 bucket
//   - MemoryStore: an in-process fake used by tests
//
// All backends share the same versioning rules: one type per artifact name,
// and publishing content identical to the latest version returns that
// version instead of creating a new one.
package artifact
