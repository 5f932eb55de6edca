// Package config handles service configuration: defaults, an optional YAML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Addr      string          `yaml:"addr"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Session   SessionConfig   `yaml:"session"`
	Metadata  MetadataConfig  `yaml:"metadata"`
	Prefetch  PrefetchConfig  `yaml:"prefetch"`
}

// ArtifactsConfig locates the model artifacts. S3 wins when a bucket is set.
type ArtifactsConfig struct {
	Dir      string   `yaml:"dir"`
	CacheDir string   `yaml:"cache_dir"`
	S3       S3Config `yaml:"s3"`
	// RecheckInterval is how long a loaded catalog is trusted before the
	// artifact signatures are checked again.
	RecheckInterval time.Duration `yaml:"recheck_interval"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	KeyID    string `yaml:"key_id"`
	AppKey   string `yaml:"app_key"`
}

type SpotifyConfig struct {
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	TokenURL          string        `yaml:"token_url"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type MetadataConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type PrefetchConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// ErrMissingCredentials is returned when the Spotify client credentials are not set.
var ErrMissingCredentials = errors.New("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr: ":8501",
		Artifacts: ArtifactsConfig{
			Dir:      "models",
			CacheDir: filepath.Join(os.TempDir(), "melodimatch-artifacts"),
			S3:       S3Config{Region: "us-east-1"},

			RecheckInterval: 5 * time.Second,
		},
		Spotify: SpotifyConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			MaxRetries:        3,
			RetryBackoff:      500 * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Metadata: MetadataConfig{CacheSize: 256},
		Prefetch: PrefetchConfig{Workers: 2, QueueSize: 100},
	}
}

// Load reads configuration. A missing path only skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a server cannot start without.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Artifacts.S3.Bucket == "" && c.Artifacts.Dir == "" {
		return errors.New("config: artifacts.dir or artifacts.s3.bucket must be set")
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "MELODIMATCH_ADDR")
	setString(&c.Artifacts.Dir, "MELODIMATCH_ARTIFACTS_DIR")
	setString(&c.Artifacts.CacheDir, "MELODIMATCH_ARTIFACTS_CACHE_DIR")
	setString(&c.Artifacts.S3.Bucket, "MELODIMATCH_S3_BUCKET")
	setString(&c.Artifacts.S3.Prefix, "MELODIMATCH_S3_PREFIX")
	setString(&c.Artifacts.S3.Region, "MELODIMATCH_S3_REGION")
	setString(&c.Artifacts.S3.Endpoint, "MELODIMATCH_S3_ENDPOINT")
	setString(&c.Artifacts.S3.KeyID, "MELODIMATCH_S3_KEY_ID")
	setString(&c.Artifacts.S3.AppKey, "MELODIMATCH_S3_APP_KEY")
	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Spotify.TokenURL, "SPOTIFY_TOKEN_URL")
	setString(&c.Spotify.BaseURL, "SPOTIFY_BASE_URL")

	if err := setDuration(&c.Spotify.Timeout, "SPOTIFY_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&c.Spotify.MaxRetries, "SPOTIFY_MAX_RETRIES"); err != nil {
		return err
	}
	if raw := os.Getenv("SPOTIFY_RETRY_BACKOFF_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: SPOTIFY_RETRY_BACKOFF_MS: %w", err)
		}
		c.Spotify.RetryBackoff = time.Duration(ms) * time.Millisecond
	}
	if err := setDuration(&c.Artifacts.RecheckInterval, "MELODIMATCH_ARTIFACTS_RECHECK"); err != nil {
		return err
	}
	if err := setDuration(&c.Session.TTL, "MELODIMATCH_SESSION_TTL"); err != nil {
		return err
	}
	if raw := os.Getenv("SPOTIFY_REQUESTS_PER_SECOND"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: SPOTIFY_REQUESTS_PER_SECOND: %w", err)
		}
		c.Spotify.RequestsPerSecond = v
	}
	if err := setInt(&c.Metadata.CacheSize, "MELODIMATCH_METADATA_CACHE_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Prefetch.Workers, "MELODIMATCH_PREFETCH_WORKERS"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}
