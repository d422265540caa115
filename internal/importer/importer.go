package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"infohub/internal/domain"
)

type CentroidWriter interface {
	Upsert(ctx context.Context, c domain.Centroid) (*domain.Centroid, error)
}

// CSVImporter reads city centroid CSV files and upserts them into the centroid catalog.
type CSVImporter struct {
	reader *csv.Reader
	repo   CentroidWriter
}

func NewCSVImporter(r io.Reader, repo CentroidWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, repo: repo}
}

// column aliases, English first
var columns = map[string][]string{
	"city":      {"city", "cidade", "localidade"},
	"state":     {"state", "uf", "estado"},
	"latitude":  {"latitude", "lat"},
	"longitude": {"longitude", "lon", "lng"},
}

// Run parses rows and upserts one centroid per row, returning the number imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for col := range columns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		c, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if c == nil {
			continue
		}
		if _, err := i.repo.Upsert(ctx, *c); err != nil {
			return imported, fmt.Errorf("upsert centroid %s-%s: %w", c.City, c.State, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for pos, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for col, aliases := range columns {
			for _, alias := range aliases {
				if h == alias {
					if _, seen := idx[col]; !seen {
						idx[col] = pos
					}
				}
			}
		}
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Centroid, error) {
	city := pick(record, index, "city")
	state := strings.ToUpper(pick(record, index, "state"))
	latStr := pick(record, index, "latitude")
	lonStr := pick(record, index, "longitude")

	if city == "" && state == "" && latStr == "" && lonStr == "" {
		return nil, nil
	}
	if city == "" || len(state) != 2 {
		return nil, fmt.Errorf("invalid city/state %q/%q", city, state)
	}
	lat, err := parseDegrees(latStr, 90)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseDegrees(lonStr, 180)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	return &domain.Centroid{City: city, State: state, Latitude: lat, Longitude: lon}, nil
}

func parseDegrees(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%v out of range", v)
	}
	return v, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
