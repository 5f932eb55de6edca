package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/ewilliams-labs/melodimatch/internal/catalog"
)

// S3Config addresses an artifact bucket.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	KeyID    string
	AppKey   string
}

// S3Source reads artifacts from an S3-compatible bucket and caches them on local disk.
type S3Source struct {
	api      s3iface.S3API
	bucket   string
	prefix   string
	cacheDir string

	mu     sync.Mutex
	cached map[string]string // name -> ETag of the local copy
}

// compile-time interface assertion
var _ catalog.Source = (*S3Source)(nil)

// NewS3Source builds a session from cfg and caches downloads under cacheDir.
func NewS3Source(cfg S3Config, cacheDir string) (*S3Source, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.KeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.KeyID, cfg.AppKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("artifacts: s3 session: %w", err)
	}
	return NewS3SourceWithAPI(s3.New(sess), cfg.Bucket, cfg.Prefix, cacheDir)
}

// NewS3SourceWithAPI wires an existing S3 client.
func NewS3SourceWithAPI(api s3iface.S3API, bucket, prefix, cacheDir string) (*S3Source, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: creating cache dir: %w", err)
	}
	return &S3Source{
		api:      api,
		bucket:   bucket,
		prefix:   prefix,
		cacheDir: cacheDir,
		cached:   make(map[string]string),
	}, nil
}

// Stat returns the object's ETag as the signature.
func (s *S3Source) Stat(ctx context.Context, name string) (string, error) {
	out, err := s.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return "", s.wrap(name, err)
	}
	return aws.StringValue(out.ETag), nil
}

// Fetch downloads the object unless the cached copy has the current ETag.
func (s *S3Source) Fetch(ctx context.Context, name string) (string, error) {
	etag, err := s.Stat(ctx, name)
	if err != nil {
		return "", err
	}

	local := filepath.Join(s.cacheDir, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached[name] == etag {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	log.Printf("📥 artifacts: downloading s3://%s/%s", s.bucket, s.key(name))
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return "", s.wrap(name, err)
	}
	defer out.Body.Close()

	tmp := local + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("artifacts: creating %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("artifacts: downloading %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("artifacts: closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("artifacts: renaming %s: %w", tmp, err)
	}

	s.cached[name] = etag
	return local, nil
}

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Source) wrap(name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("artifacts: s3://%s/%s: %w", s.bucket, s.key(name), fs.ErrNotExist)
	}
	return fmt.Errorf("artifacts: s3://%s/%s: %w", s.bucket, s.key(name), err)
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
