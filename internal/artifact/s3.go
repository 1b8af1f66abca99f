package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	// indexObjectName is the per-artifact version index.
	indexObjectName = "index.json"

	// defaultRegion is used when neither the options nor AWS_REGION name one.
	defaultRegion = "us-east-1"

	maxUploadRetries = 3
	initialBackoff   = 1 * time.Second
	maxBackoff       = 8 * time.Second
)

// S3Options configures an S3Store.
type S3Options struct {
	// Bucket is the target bucket. Required.
	Bucket string

	// Region defaults to AWS_REGION, then us-east-1.
	Region string

	// Prefix is prepended to every object key.
	Prefix string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string

	// ForcePathStyle addresses the bucket in the URL path instead of the host.
	ForcePathStyle bool

	// CacheDir is where resolved versions are written. Required.
	CacheDir string

	// Credentials overrides the default AWS credential chain.
	Credentials *credentials.Credentials

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// S3Store keeps artifacts in an S3 bucket.
//
// Version content is stored at "<prefix>/<name>/v<N>/<file>" and the
// version list at "<prefix>/<name>/index.json". Concurrent publishers to the
// same name from different processes are not coordinated.
type S3Store struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
	prefix     string
	cacheDir   string
	logger     *slog.Logger

	// mu serializes index updates within this process.
	mu sync.Mutex
}

// NewS3Store creates an S3Store from opts.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, ErrMissingBucket
	}
	if opts.CacheDir == "" {
		return nil, errors.New("s3 cache directory is required")
	}

	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultRegion
	}

	cfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.Credentials != nil {
		cfg.Credentials = opts.Credentials
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	client := s3.New(sess)

	s := &S3Store{
		client:     client,
		uploader:   s3manager.NewUploaderWithClient(client),
		downloader: s3manager.NewDownloaderWithClient(client),
		bucket:     opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
		cacheDir:   opts.CacheDir,
		logger:     opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.logger.Debug("initialized S3 artifact store", "bucket", s.bucket, "prefix", s.prefix, "region", region)
	return s, nil
}

// Publish uploads the file at path as the next version of meta.Name.
func (s *S3Store) Publish(ctx context.Context, filePath string, meta Metadata) (Reference, error) {
	if err := validateMetadata(meta); err != nil {
		return Reference{}, err
	}

	digest, size, err := digestFile(filePath)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to read artifact file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadIndex(ctx, meta.Name)
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

	v := Version{
		Name:        meta.Name,
		Version:     next,
		Type:        meta.Type,
		Description: meta.Description,
		FileName:    filepath.Base(filePath),
		Digest:      digest,
		Size:        size,
		Metadata:    meta.Extra,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.upload(ctx, filePath, s.blobKey(v)); err != nil {
		return Reference{}, err
	}
	if err := s.putIndex(ctx, meta.Name, append(history, v)); err != nil {
		return Reference{}, err
	}

	return v.Reference(), nil
}

// Resolve downloads the referenced version into the cache directory.
func (s *S3Store) Resolve(ctx context.Context, ref string) (string, error) {
	p, err := s.resolve(ctx, ref)
	if err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}
	return p, nil
}

func (s *S3Store) resolve(ctx context.Context, ref string) (string, error) {
	sel, err := ParseReference(ref)
	if err != nil {
		return "", err
	}

	history, err := s.loadIndex(ctx, sel.Name)
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

	if err := s.download(ctx, s.blobKey(v), dst, v.Digest); err != nil {
		return "", err
	}

	s.logger.Debug("artifact downloaded", "artifact", v.Reference().String(), "path", dst)
	return dst, nil
}

// History returns every version of name in ascending order.
func (s *S3Store) History(ctx context.Context, name string) ([]Version, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return s.loadIndex(ctx, name)
}

// Artifacts lists the artifact names under the prefix and summarizes each.
func (s *S3Store) Artifacts(ctx context.Context) ([]Summary, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}

	var names []string
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(listPrefix),
		Delimiter: aws.String("/"),
	}
	err := s.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(cp.Prefix), listPrefix), "/")
			if ValidateName(name) == nil {
				names = append(names, name)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in s3://%s/%s: %w", s.bucket, listPrefix, err)
	}
	sort.Strings(names)

	results := make([]Summary, 0, len(names))
	for _, name := range names {
		history, err := s.loadIndex(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			continue
		}
		latest := history[len(history)-1]
		results = append(results, Summary{
			Name:      name,
			Type:      latest.Type,
			Latest:    latest.Version,
			Versions:  len(history),
			UpdatedAt: latest.CreatedAt,
		})
	}

	return results, nil
}

// loadIndex reads the version index of name. A missing index is an empty history.
func (s *S3Store) loadIndex(ctx context.Context, name string) ([]Version, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.indexKey(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read index of %s: %w", name, err)
	}
	defer out.Body.Close()

	var history []Version
	if err := json.NewDecoder(out.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to parse index of %s: %w", name, err)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Version < history[j].Version })

	return history, nil
}

// putIndex replaces the version index of name.
func (s *S3Store) putIndex(ctx context.Context, name string, history []Version) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize index of %s: %w", name, err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.indexKey(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write index of %s: %w", name, err)
	}
	return nil
}

// upload sends the file at filePath to key, retrying with exponential backoff.
func (s *S3Store) upload(ctx context.Context, filePath, key string) error {
	file, err := os.Open(filePath) //nolint:gosec // caller-provided artifact path
	if err != nil {
		return fmt.Errorf("failed to open artifact file: %w", err)
	}
	defer file.Close()

	var uploadErr error
	for attempt := 0; attempt < maxUploadRetries; attempt++ {
		// The uploader consumes the reader, so every attempt starts over.
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind %s: %w", filePath, err)
		}

		_, uploadErr = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   file,
		})
		if uploadErr == nil {
			s.logger.Debug("artifact uploaded", "bucket", s.bucket, "key", key)
			return nil
		}

		s.logger.Warn("upload attempt failed",
			"attempt", attempt+1,
			"max_attempts", maxUploadRetries,
			"key", key,
			"error", uploadErr)

		if attempt < maxUploadRetries-1 {
			backoff := min(time.Duration(1<<attempt)*initialBackoff, maxBackoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("failed to upload %s to s3://%s/%s after %d attempts: %w",
		filePath, s.bucket, key, maxUploadRetries, uploadErr)
}

// download fetches key into dst, which only appears once its content
// hashes to digest.
func (s *S3Store) download(ctx context.Context, key, dst, digest string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = s.downloader.DownloadWithContext(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	closeErr := tmp.Close()
	if err != nil {
		_ = os.Remove(tmpName)
		if isNotFound(err) {
			return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	if closeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", dst, closeErr)
	}

	got, _, err := digestFile(tmpName)
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if got != digest {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, digest, got)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", dst, err)
	}
	return nil
}

func (s *S3Store) indexKey(name string) string {
	return path.Join(s.prefix, name, indexObjectName)
}

func (s *S3Store) blobKey(v Version) string {
	return path.Join(s.prefix, v.Name, "v"+strconv.Itoa(v.Version), v.FileName)
}

// isNotFound reports whether err is an S3 missing-object error.
func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}

var (
	_ Store   = (*S3Store)(nil)
	_ Catalog = (*S3Store)(nil)
)
