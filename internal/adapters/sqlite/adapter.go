// Package sqlite provides the SQLite-backed track catalog.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/melodimatch/internal/catalog"
	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// FeatureColumns are the numeric audio feature columns the catalog can store.
var FeatureColumns = []string{
	"danceability",
	"energy",
	"key",
	"loudness",
	"mode",
	"speechiness",
	"acousticness",
	"instrumentalness",
	"liveness",
	"valence",
	"tempo",
	"duration_ms",
	"time_signature",
	"popularity",
}

// Adapter implements the catalog repository port for SQLite
type Adapter struct {
	db *sql.DB
}

// compile-time interface assertions
var (
	_ ports.CatalogRepository = (*Adapter)(nil)
	_ catalog.CatalogReader   = (*Adapter)(nil)
)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// OpenCatalog opens a built catalog read-only and matches catalog.CatalogOpener.
// No migration is run; the file must already hold the tracks table.
func OpenCatalog(path string) (catalog.CatalogReader, error) {
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite catalog: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// LoadTracks returns every catalog row ordered by internal index.
// Feature columns that are NULL are left out of the row's feature map.
func (a *Adapter) LoadTracks(ctx context.Context) ([]domain.TrackRecord, error) {
	query := fmt.Sprintf(
		"SELECT idx, track_id, track_name, artist_name, %s FROM tracks ORDER BY idx ASC",
		quotedColumns(),
	)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.TrackRecord
	for rows.Next() {
		var (
			track    domain.TrackRecord
			trackID  sql.NullString
			artist   sql.NullString
			features = make([]sql.NullFloat64, len(FeatureColumns))
		)
		dest := []any{&track.Index, &trackID, &track.Name, &artist}
		for i := range features {
			dest = append(dest, &features[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		if trackID.Valid {
			track.TrackID = trackID.String
		}
		if artist.Valid {
			track.Artist = artist.String
		}
		track.Features = make(map[string]float64, len(FeatureColumns))
		for i, col := range FeatureColumns {
			if features[i].Valid {
				track.Features[col] = features[i].Float64
			}
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// SaveTracks upserts rows by internal index. An empty TrackID is stored as NULL.
func (a *Adapter) SaveTracks(ctx context.Context, tracks []domain.TrackRecord) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updates := make([]string, 0, len(FeatureColumns)+3)
	updates = append(updates, "track_id=excluded.track_id", "track_name=excluded.track_name", "artist_name=excluded.artist_name")
	for _, col := range FeatureColumns {
		updates = append(updates, fmt.Sprintf("%q=excluded.%q", col, col))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(FeatureColumns)+4), ", ")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO tracks (idx, track_id, track_name, artist_name, %s)
		VALUES (%s)
		ON CONFLICT(idx) DO UPDATE SET %s;
	`, quotedColumns(), placeholders, strings.Join(updates, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		args := []any{t.Index, nullString(t.TrackID), t.Name, nullString(t.Artist)}
		for _, col := range FeatureColumns {
			if v, ok := t.Features[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to save track %d: %w", t.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}

	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		idx INTEGER PRIMARY KEY,
		track_id TEXT,
		track_name TEXT NOT NULL,
		artist_name TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_name ON tracks (track_name COLLATE NOCASE);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	for _, col := range FeatureColumns {
		if _, err := a.db.Exec(fmt.Sprintf("ALTER TABLE tracks ADD COLUMN %q REAL", col)); err != nil {
			if !isDuplicateColumnError(err) {
				return err
			}
		}
	}

	return nil
}

func quotedColumns() string {
	quoted := make([]string, len(FeatureColumns))
	for i, col := range FeatureColumns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	return strings.Join(quoted, ", ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
