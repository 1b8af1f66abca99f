package artifact

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests. Published content is held
// in memory; Resolve writes it under the directory given to NewMemoryStore.
type MemoryStore struct {
	mu       sync.Mutex
	dir      string
	versions map[string][]Version
	blobs    map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore that materializes files under dir.
func NewMemoryStore(dir string) *MemoryStore {
	return &MemoryStore{
		dir:      dir,
		versions: make(map[string][]Version),
		blobs:    make(map[string][]byte),
	}
}

// Publish reads the file at path and records it as the next version.
func (m *MemoryStore) Publish(_ context.Context, path string, meta Metadata) (Reference, error) {
	if err := validateMetadata(meta); err != nil {
		return Reference{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // caller-provided artifact path
	if err != nil {
		return Reference{}, fmt.Errorf("failed to read artifact file: %w", err)
	}
	h := newHash()
	h.Write(data)
	digest := hex.EncodeToString(h.Sum(nil))

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, next, err := planPublish(m.versions[meta.Name], meta, digest)
	if err != nil {
		return Reference{}, err
	}
	if existing != nil {
		return existing.Reference(), nil
	}

	m.blobs[digest] = data
	v := Version{
		Name:        meta.Name,
		Version:     next,
		Type:        meta.Type,
		Description: meta.Description,
		FileName:    filepath.Base(path),
		Digest:      digest,
		Size:        int64(len(data)),
		Metadata:    meta.Extra,
		CreatedAt:   time.Now().UTC(),
	}
	m.versions[meta.Name] = append(m.versions[meta.Name], v)

	return v.Reference(), nil
}

// Resolve writes the referenced version under the store directory.
func (m *MemoryStore) Resolve(_ context.Context, ref string) (string, error) {
	sel, err := ParseReference(ref)
	if err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}

	m.mu.Lock()
	v, err := selectVersion(m.versions[sel.Name], sel)
	data := m.blobs[v.Digest]
	m.mu.Unlock()
	if err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}

	dst := filepath.Join(versionDir(m.dir, v.Name, v.Version), v.FileName)
	if err := writeVerified(dst, bytes.NewReader(data), v.Digest); err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}
	return dst, nil
}

// History returns every version of name in ascending order.
func (m *MemoryStore) History(_ context.Context, name string) ([]Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Version(nil), m.versions[name]...), nil
}

// Artifacts returns one summary per artifact name.
func (m *MemoryStore) Artifacts(_ context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Summary, 0, len(m.versions))
	for name, history := range m.versions {
		latest := history[len(history)-1]
		results = append(results, Summary{
			Name:      name,
			Type:      latest.Type,
			Latest:    latest.Version,
			Versions:  len(history),
			UpdatedAt: latest.CreatedAt,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	return results, nil
}

// Content returns the stored bytes of the referenced version.
func (m *MemoryStore) Content(ref string) ([]byte, error) {
	sel, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, err := selectVersion(m.versions[sel.Name], sel)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), m.blobs[v.Digest]...), nil
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Catalog = (*MemoryStore)(nil)
)
