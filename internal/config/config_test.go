package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MELODIMATCH_ADDR", "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8501", cfg.Addr)
	require.Equal(t, 30*time.Minute, cfg.Session.TTL)
	require.Equal(t, 256, cfg.Metadata.CacheSize)
	require.Equal(t, 3, cfg.Spotify.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Spotify.RetryBackoff)
	require.Equal(t, 5*time.Second, cfg.Artifacts.RecheckInterval)
}

func TestLoad_RetrySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melodimatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
spotify:
  max_retries: 7
  retry_backoff: 2s
artifacts:
  recheck_interval: 1m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Spotify.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.Spotify.RetryBackoff)
	require.Equal(t, time.Minute, cfg.Artifacts.RecheckInterval)

	t.Setenv("SPOTIFY_MAX_RETRIES", "5")
	t.Setenv("SPOTIFY_RETRY_BACKOFF_MS", "250")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Spotify.MaxRetries)
	require.Equal(t, 250*time.Millisecond, cfg.Spotify.RetryBackoff)

	t.Setenv("SPOTIFY_MAX_RETRIES", "many")
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melodimatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
artifacts:
  dir: /srv/models
  s3:
    bucket: models
spotify:
  client_id: from-file
  timeout: 3s
session:
  ttl: 1h
`), 0o644))

	t.Setenv("SPOTIFY_CLIENT_ID", "from-env")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("MELODIMATCH_SESSION_TTL", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, "/srv/models", cfg.Artifacts.Dir)
	require.Equal(t, "models", cfg.Artifacts.S3.Bucket)
	require.Equal(t, "us-east-1", cfg.Artifacts.S3.Region)
	require.Equal(t, "from-env", cfg.Spotify.ClientID)
	require.Equal(t, 3*time.Second, cfg.Spotify.Timeout)
	require.Equal(t, time.Hour, cfg.Session.TTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	t.Setenv("MELODIMATCH_SESSION_TTL", "soon")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidate_RequiresCredentials(t *testing.T) {
	cfg := Default()
	require.True(t, errors.Is(cfg.Validate(), ErrMissingCredentials))

	cfg.Spotify.ClientID, cfg.Spotify.ClientSecret = "id", "secret"
	require.NoError(t, cfg.Validate())
}
