package artifact

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Resolver locates an artifact version and materializes it as a local file.
type Resolver interface {
	// Resolve returns the path of a local copy of the referenced version.
	// Failures are reported as *ResolutionError.
	Resolve(ctx context.Context, ref string) (string, error)
}

// Publisher registers a local file as a new artifact version.
type Publisher interface {
	// Publish stores the file at path under meta and returns the version
	// reference assigned by the store.
	Publish(ctx context.Context, path string, meta Metadata) (Reference, error)
}

// Store is the artifact store used by pipeline steps.
type Store interface {
	Resolver
	Publisher
}

// Catalog lists stored artifacts. Not every caller needs it, so it is kept
// apart from Store.
type Catalog interface {
	// Artifacts returns one summary per artifact name, ordered by name.
	Artifacts(ctx context.Context) ([]Summary, error)

	// History returns every version of name in ascending version order.
	History(ctx context.Context, name string) ([]Version, error)
}

// validateMetadata checks the fields every backend requires.
func validateMetadata(meta Metadata) error {
	if err := ValidateName(meta.Name); err != nil {
		return err
	}
	if meta.Type == "" {
		return ErrMissingType
	}
	return nil
}

// planPublish applies the shared versioning rules to history, which must be
// in ascending version order. It returns the existing version when digest
// matches the latest content, or the number the new version should get.
func planPublish(history []Version, meta Metadata, digest string) (*Version, int, error) {
	if len(history) == 0 {
		return nil, 0, nil
	}

	latest := history[len(history)-1]
	if latest.Type != meta.Type {
		return nil, 0, fmt.Errorf("%w: %q has type %q, not %q", ErrTypeMismatch, meta.Name, latest.Type, meta.Type)
	}
	if latest.Digest == digest {
		return &latest, latest.Version, nil
	}
	return nil, latest.Version + 1, nil
}

// selectVersion picks the version matching sel from history (ascending order).
func selectVersion(history []Version, sel Selector) (Version, error) {
	if len(history) == 0 {
		return Version{}, ErrNotFound
	}
	if sel.Latest {
		return history[len(history)-1], nil
	}
	for _, v := range history {
		if v.Version == sel.Version {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("%w: %s", ErrNotFound, sel)
}

// versionDir is the cache directory for one version of an artifact.
func versionDir(cacheDir, name string, version int) string {
	return filepath.Join(cacheDir, name, "v"+strconv.Itoa(version))
}

// newHash returns the hash used for artifact digests.
func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

// digestFile returns the hex digest and size of the file at path.
func digestFile(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided artifact path
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := newHash()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// fileMatches reports whether path exists and hashes to digest.
func fileMatches(path, digest string) bool {
	got, _, err := digestFile(path)
	return err == nil && got == digest
}

// writeVerified copies r to dst, failing with ErrDigestMismatch if the
// content does not hash to digest. dst only appears once verified.
func writeVerified(dst string, r io.Reader, digest string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	h := newHash()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	if got := hex.EncodeToString(h.Sum(nil)); got != digest {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, digest, got)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", dst, err)
	}
	return nil
}
