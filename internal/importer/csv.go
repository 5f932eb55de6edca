// Package importer reads dataset exports into catalog rows.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// Header names recognized besides the feature columns. An unnamed first
// column is treated as the row index, as written by dataframe exports.
var (
	indexHeaders  = []string{"index", "idx"}
	idHeaders     = []string{"track_id", "id"}
	nameHeaders   = []string{"track_name", "name"}
	artistHeaders = []string{"artist_name", "artists", "artist"}
)

// ErrMissingColumn indicates a required header is absent.
var ErrMissingColumn = errors.New("importer: missing column")

// ReadCSV parses rows into catalog records. Only the given feature columns
// are read; empty feature cells are left out of the record. Rows without an
// explicit index are numbered from zero in file order.
func ReadCSV(r io.Reader, featureColumns []string) ([]domain.TrackRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	indexCol := find(header, indexHeaders)
	if indexCol == -1 && header[0] == "" {
		indexCol = 0
	}
	idCol := find(header, idHeaders)
	nameCol := find(header, nameHeaders)
	artistCol := find(header, artistHeaders)
	if idCol == -1 {
		return nil, fmt.Errorf("%w: track_id", ErrMissingColumn)
	}
	if nameCol == -1 {
		return nil, fmt.Errorf("%w: track_name", ErrMissingColumn)
	}

	featureCols := make(map[string]int, len(featureColumns))
	for _, col := range featureColumns {
		if i := find(header, []string{col}); i != -1 {
			featureCols[col] = i
		}
	}

	var records []domain.TrackRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: line %d: %w", line, err)
		}

		rec := domain.TrackRecord{
			Index:    len(records),
			TrackID:  cell(row, idCol),
			Name:     cell(row, nameCol),
			Artist:   cell(row, artistCol),
			Features: make(map[string]float64, len(featureCols)),
		}
		if indexCol != -1 {
			if raw := cell(row, indexCol); raw != "" {
				idx, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("importer: line %d: index %q: %w", line, raw, err)
				}
				rec.Index = idx
			}
		}
		for col, i := range featureCols {
			raw := cell(row, i)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("importer: line %d: %s %q: %w", line, col, raw, err)
			}
			rec.Features[col] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func find(header []string, names []string) int {
	for i, h := range header {
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
