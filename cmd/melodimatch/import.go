package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/melodimatch/internal/adapters/sqlite"
	"github.com/ewilliams-labs/melodimatch/internal/importer"
)

var (
	importCSV string
	importDB  string
)

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "CSV export of the track dataset")
	importCmd.Flags().StringVar(&importDB, "db", "catalog.db", "SQLite catalog to write")
	importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV track dataset into the SQLite catalog",
	Long: `Load a CSV track dataset into the SQLite catalog.

Usage:
  melodimatch import --csv tracks.csv --db models/catalog.db

The header must name track_id and track_name; artist_name and the audio
feature columns are optional. Rows with an empty track_id are kept and
skipped when the catalog is loaded.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importCSV)
	if err != nil {
		return fmt.Errorf("opening %s: %w", importCSV, err)
	}
	defer f.Close()

	tracks, err := importer.ReadCSV(f, sqlite.FeatureColumns)
	if err != nil {
		return err
	}

	db, err := sqlite.NewAdapter(importDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveTracks(cmd.Context(), tracks); err != nil {
		return err
	}

	withoutID := 0
	for _, t := range tracks {
		if !t.HasTrackID() {
			withoutID++
		}
	}
	log.Printf("💾 Imported %d tracks into %s (%d without a track id)", len(tracks), importDB, withoutID)
	return nil
}
