package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
)

// Artifact file names.
const (
	IndexFile     = "knn_model.gob"
	TransformFile = "preprocessor.json"
	SchemaFile    = "feature_info.json"
	CatalogFile   = "catalog.db"
)

type artifact struct {
	name string
	file string
}

// Checked in this order so the first missing model piece is the one reported.
var artifacts = []artifact{
	{name: "neighbor index", file: IndexFile},
	{name: "feature transform", file: TransformFile},
	{name: "feature schema", file: SchemaFile},
	{name: "track catalog", file: CatalogFile},
}

// Source locates artifact files. Stat returns an opaque signature that
// changes whenever the file does; both methods wrap fs.ErrNotExist when the
// artifact is absent.
type Source interface {
	Stat(ctx context.Context, name string) (string, error)
	Fetch(ctx context.Context, name string) (string, error)
}

// CatalogReader is a closable catalog repository.
type CatalogReader interface {
	ports.CatalogRepository
	io.Closer
}

// CatalogOpener opens the catalog database at a local path.
type CatalogOpener func(path string) (CatalogReader, error)

// Loader loads the artifacts once and memoizes the result for as long as
// the artifact signatures stay the same. Signatures are checked at most once
// per recheck interval; the last outcome, store or error, is reused between
// checks.
type Loader struct {
	source  Source
	open    CatalogOpener
	recheck time.Duration
	now     func() time.Time

	mu        sync.Mutex
	checked   time.Time
	signature string
	store     *Store
	err       error
}

// compile-time interface assertion
var _ ports.CatalogLoader = (*Loader)(nil)

// NewLoader constructs a Loader. recheck <= 0 checks the signatures on every Load.
func NewLoader(source Source, open CatalogOpener, recheck time.Duration) *Loader {
	return &Loader{source: source, open: open, recheck: recheck, now: time.Now}
}

// Load returns the cached store, reloading only when an artifact changed.
func (l *Loader) Load(ctx context.Context) (ports.Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.recheck > 0 && !l.checked.IsZero() && now.Sub(l.checked) < l.recheck {
		return l.result()
	}

	store, sig, err := l.refresh(ctx)
	l.checked = now
	l.err = err
	if err == nil {
		l.store, l.signature = store, sig
	}
	return l.result()
}

func (l *Loader) result() (ports.Catalog, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.store, nil
}

func (l *Loader) refresh(ctx context.Context) (*Store, string, error) {
	sig, err := l.currentSignature(ctx)
	if err != nil {
		return nil, "", err
	}
	if l.store != nil && sig == l.signature {
		return l.store, sig, nil
	}

	start := time.Now()
	store, err := l.build(ctx)
	if err != nil {
		return nil, "", err
	}
	log.Printf("catalog: loaded %d tracks in %s", store.Size(), time.Since(start).Round(time.Millisecond))
	return store, sig, nil
}

func (l *Loader) currentSignature(ctx context.Context) (string, error) {
	parts := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		sig, err := l.source.Stat(ctx, a.file)
		if err != nil {
			return "", artifactError(a, err)
		}
		parts = append(parts, a.file+"="+sig)
	}
	return strings.Join(parts, ";"), nil
}

func (l *Loader) build(ctx context.Context) (*Store, error) {
	var index *Index
	if err := l.withFile(ctx, artifacts[0], func(r io.Reader) error {
		var err error
		index, err = DecodeIndex(r)
		return err
	}); err != nil {
		return nil, err
	}

	var transform *Transform
	if err := l.withFile(ctx, artifacts[1], func(r io.Reader) error {
		var err error
		transform, err = DecodeTransform(r)
		return err
	}); err != nil {
		return nil, err
	}

	var schema domain.FeatureSchema
	if err := l.withFile(ctx, artifacts[2], func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(&schema); err != nil {
			return fmt.Errorf("catalog: decoding feature schema: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	path, err := l.source.Fetch(ctx, CatalogFile)
	if err != nil {
		return nil, artifactError(artifacts[3], err)
	}
	repo, err := l.open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", CatalogFile, err)
	}
	defer repo.Close()

	tracks, err := repo.LoadTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading tracks: %w", err)
	}

	return NewStore(tracks, schema, transform, index)
}

func (l *Loader) withFile(ctx context.Context, a artifact, fn func(io.Reader) error) error {
	path, err := l.source.Fetch(ctx, a.file)
	if err != nil {
		return artifactError(a, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return artifactError(a, err)
	}
	defer f.Close()
	return fn(f)
}

func artifactError(a artifact, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return MissingArtifactError{Artifact: a.name, File: a.file}
	}
	return fmt.Errorf("catalog: %s: %w", a.name, err)
}
