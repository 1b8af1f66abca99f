package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	_ "modernc.org/sqlite" // SQLite driver
)

// catalogFileName is the SQLite catalog inside a LocalStore directory.
const catalogFileName = "artifacts.db"

// LocalStore keeps artifacts on the local filesystem.
//
// Version records live in a SQLite catalog; file contents live in a blob
// directory keyed by digest and compressed with lz4, so identical content
// published under several names is stored once. Resolve decompresses a
// version into the cache directory.
type LocalStore struct {
	// db is the catalog connection.
	db *sql.DB

	// blobDir holds "<digest>.lz4" files.
	blobDir string

	// cacheDir receives materialized versions.
	cacheDir string

	logger *slog.Logger
}

// LocalOptions configures a LocalStore.
type LocalOptions struct {
	// CacheDir is where resolved versions are written.
	// Defaults to "<dir>/cache".
	CacheDir string

	// EnableWAL enables SQLite write-ahead logging.
	EnableWAL bool

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultLocalOptions returns the default LocalStore options.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{
		EnableWAL: true,
	}
}

// OpenLocal opens or creates a LocalStore rooted at dir.
func OpenLocal(dir string, opts LocalOptions) (*LocalStore, error) {
	blobDir := filepath.Join(dir, "blobs")
	if err := os.MkdirAll(blobDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(dir, "cache")
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, catalogFileName)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &LocalStore{
		db:       db,
		blobDir:  blobDir,
		cacheDir: cacheDir,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the catalog.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// createTables creates the catalog schema if it doesn't exist.
func (s *LocalStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifact_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL,
		metadata TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(name, version)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_name ON artifact_versions(name);
	CREATE INDEX IF NOT EXISTS idx_versions_digest ON artifact_versions(digest);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Publish stores the file at path as the next version of meta.Name.
func (s *LocalStore) Publish(ctx context.Context, path string, meta Metadata) (Reference, error) {
	if err := validateMetadata(meta); err != nil {
		return Reference{}, err
	}

	digest, size, err := digestFile(path)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to read artifact file: %w", err)
	}

	extra, err := json.Marshal(meta.Extra)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to serialize metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	history, err := queryHistory(ctx, tx, meta.Name)
	if err != nil {
		return Reference{}, err
	}

	existing, next, err := planPublish(history, meta, digest)
	if err != nil {
		return Reference{}, err
	}
	if existing != nil {
		s.logger.Debug("artifact content unchanged", "artifact", existing.Reference().String())
		return existing.Reference(), nil
	}

	if err := s.writeBlob(path, digest); err != nil {
		return Reference{}, err
	}

	query := `
	INSERT INTO artifact_versions (name, version, type, description, file_name, digest, size, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		meta.Name,
		next,
		meta.Type,
		meta.Description,
		filepath.Base(path),
		digest,
		size,
		string(extra),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to insert artifact version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Reference{}, fmt.Errorf("failed to commit artifact version: %w", err)
	}

	return Reference{Name: meta.Name, Version: next, Digest: digest}, nil
}

// Resolve decompresses the referenced version into the cache directory.
func (s *LocalStore) Resolve(ctx context.Context, ref string) (string, error) {
	path, err := s.resolve(ctx, ref)
	if err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}
	return path, nil
}

func (s *LocalStore) resolve(ctx context.Context, ref string) (string, error) {
	sel, err := ParseReference(ref)
	if err != nil {
		return "", err
	}

	history, err := queryHistory(ctx, s.db, sel.Name)
	if err != nil {
		return "", err
	}
	v, err := selectVersion(history, sel)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(versionDir(s.cacheDir, v.Name, v.Version), v.FileName)
	if fileMatches(dst, v.Digest) {
		s.logger.Debug("artifact already materialized", "artifact", v.Reference().String(), "path", dst)
		return dst, nil
	}

	blob, err := os.Open(s.blobPath(v.Digest))
	if err != nil {
		return "", fmt.Errorf("failed to open blob for %s: %w", v.Reference(), err)
	}
	defer blob.Close()

	if err := writeVerified(dst, lz4.NewReader(blob), v.Digest); err != nil {
		return "", err
	}

	s.logger.Debug("artifact materialized", "artifact", v.Reference().String(), "path", dst)
	return dst, nil
}

// History returns every version of name in ascending order.
func (s *LocalStore) History(ctx context.Context, name string) ([]Version, error) {
	return queryHistory(ctx, s.db, name)
}

// Artifacts returns one summary per artifact name.
func (s *LocalStore) Artifacts(ctx context.Context) ([]Summary, error) {
	query := `
	SELECT name, type, MAX(version), COUNT(*), MAX(created_at)
	FROM artifact_versions
	GROUP BY name
	ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var results []Summary
	for rows.Next() {
		var sum Summary
		var updated string
		if err := rows.Scan(&sum.Name, &sum.Type, &sum.Latest, &sum.Versions, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan artifact summary: %w", err)
		}
		sum.UpdatedAt = parseTimestamp(updated)
		results = append(results, sum)
	}

	return results, rows.Err()
}

// writeBlob stores the compressed content of path unless a blob with the
// same digest already exists.
func (s *LocalStore) writeBlob(path, digest string) error {
	dst := s.blobPath(digest)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	src, err := os.Open(path) //nolint:gosec // caller-provided artifact path
	if err != nil {
		return fmt.Errorf("failed to open artifact file: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.blobDir, ".blob.*")
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}
	tmpName := tmp.Name()

	zw := lz4.NewWriter(tmp)
	if _, err := io.Copy(zw, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to compress blob: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to finish blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close blob: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to store blob: %w", err)
	}

	s.logger.Debug("blob stored", "digest", digest, "path", dst)
	return nil
}

// blobPath returns the blob file for digest.
func (s *LocalStore) blobPath(digest string) string {
	return filepath.Join(s.blobDir, digest+".lz4")
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryHistory loads all versions of name in ascending order.
func queryHistory(ctx context.Context, q queryer, name string) ([]Version, error) {
	query := `
	SELECT name, version, type, description, file_name, digest, size, metadata, created_at
	FROM artifact_versions
	WHERE name = ?
	ORDER BY version ASC
	`

	rows, err := q.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact history: %w", err)
	}
	defer rows.Close()

	var results []Version
	for rows.Next() {
		var v Version
		var metadata sql.NullString
		var created string

		if err := rows.Scan(
			&v.Name,
			&v.Version,
			&v.Type,
			&v.Description,
			&v.FileName,
			&v.Digest,
			&v.Size,
			&metadata,
			&created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan artifact version: %w", err)
		}

		v.CreatedAt = parseTimestamp(created)
		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &v.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata of %s:v%d: %w", v.Name, v.Version, err)
			}
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

// timestampFormats contains the timestamp layouts the catalog may hold.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a catalog timestamp, returning the zero time when
// no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// compile-time interface checks
var (
	_ Store   = (*LocalStore)(nil)
	_ Catalog = (*LocalStore)(nil)
)
