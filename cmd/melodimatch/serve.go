package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/melodimatch/internal/adapters/artifacts"
	"github.com/ewilliams-labs/melodimatch/internal/adapters/spotify"
	"github.com/ewilliams-labs/melodimatch/internal/adapters/sqlite"
	"github.com/ewilliams-labs/melodimatch/internal/adapters/web"
	"github.com/ewilliams-labs/melodimatch/internal/catalog"
	"github.com/ewilliams-labs/melodimatch/internal/config"
	"github.com/ewilliams-labs/melodimatch/internal/core/services"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
	"github.com/ewilliams-labs/melodimatch/internal/session"
	"github.com/ewilliams-labs/melodimatch/internal/worker"
)

var (
	serveAddr      string
	serveArtifacts string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8501)")
	serveCmd.Flags().StringVar(&serveArtifacts, "artifacts", "", "Directory holding the model artifacts")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server.

The model artifacts (knn_model.gob, preprocessor.json, feature_info.json and
catalog.db) are read from --artifacts or from the S3 bucket named in the
config. Spotify client credentials come from SPOTIFY_CLIENT_ID and
SPOTIFY_CLIENT_SECRET.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveArtifacts != "" {
		cfg.Artifacts.Dir = serveArtifacts
		cfg.Artifacts.S3.Bucket = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Driven adapters
	source, err := artifactSource(cfg.Artifacts)
	if err != nil {
		return err
	}
	loader := catalog.NewLoader(source, sqlite.OpenCatalog, cfg.Artifacts.RecheckInterval)

	spotifyClient := spotify.NewClientCredentialsClient(
		cfg.Spotify.ClientID,
		cfg.Spotify.ClientSecret,
		cfg.Spotify.TokenURL,
		cfg.Spotify.Timeout,
		spotify.Options{
			BaseURL:           cfg.Spotify.BaseURL,
			RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
			MaxRetries:        cfg.Spotify.MaxRetries,
			BaseBackoff:       cfg.Spotify.RetryBackoff,
		},
	)

	// 3. Core
	m := metrics.New()
	gateway := services.NewMetadataGateway(spotifyClient, m, cfg.Metadata.CacheSize)

	pool := worker.NewPool(gateway, m, cfg.Prefetch.QueueSize)
	pool.Start(cfg.Prefetch.Workers)
	defer pool.Stop()

	controller := services.NewController(loader, services.NewRecommender(m), pool, m)
	renderer := services.NewRenderer(loader, gateway)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewStore(cfg.Session.TTL, m)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	// Load once up front; a failure is rendered to every visitor until the artifacts are fixed.
	if cat, err := loader.Load(ctx); err != nil {
		m.CatalogLoad(err)
		log.Printf("WARN catalog: %v", err)
	} else {
		m.CatalogLoad(nil)
		log.Printf("📚 Catalog ready with %d tracks", cat.Size())
	}

	// 4. Driving adapter
	handler := web.NewHandler(controller, renderer, sessions, loader, m)

	log.Println("------------------------------------------------")
	log.Printf("🎶 MelodiMatch is running on http://localhost%s", cfg.Addr)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func artifactSource(cfg config.ArtifactsConfig) (catalog.Source, error) {
	if cfg.S3.Bucket == "" {
		log.Printf("📂 Reading artifacts from %s", cfg.Dir)
		return artifacts.NewLocalSource(cfg.Dir), nil
	}
	log.Printf("☁️ Reading artifacts from s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	return artifacts.NewS3Source(artifacts.S3Config{
		Bucket:   cfg.S3.Bucket,
		Prefix:   cfg.S3.Prefix,
		Region:   cfg.S3.Region,
		Endpoint: cfg.S3.Endpoint,
		KeyID:    cfg.S3.KeyID,
		AppKey:   cfg.S3.AppKey,
	}, cfg.CacheDir)
}
