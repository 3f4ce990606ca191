// Package tabular reads stop and population tables from CSV or XLSX files.
package tabular

import (
	"fmt"
	"strings"

	"github.com/samirrijal/reachmap/internal/core/domain"
)

// Canonical column names the row structs decode from.
const (
	colStopID   = "stop_id"
	colStopName = "stop_name"
	colStopLat  = "stop_lat"
	colStopLon  = "stop_lon"
	colLat      = "lat"
	colLon      = "lon"
	colWeight   = "weight"
)

// StopColumns names the stops table columns as they appear in the file.
type StopColumns struct {
	ID   string
	Name string
	Lat  string
	Lon  string
}

// DefaultStopColumns matches a GTFS stops.txt header.
var DefaultStopColumns = StopColumns{ID: "stop_id", Name: "stop_name", Lat: "stop_lat", Lon: "stop_lon"}

func (c StopColumns) mapping() []columnMapping {
	return []columnMapping{
		{file: c.ID, canonical: colStopID},
		{file: c.Name, canonical: colStopName},
		{file: c.Lat, canonical: colStopLat},
		{file: c.Lon, canonical: colStopLon},
	}
}

// PopulationColumns names the population table columns as they appear in the file.
type PopulationColumns struct {
	Lat    string
	Lon    string
	Weight string
}

// DefaultPopulationColumns matches the gridded census export.
var DefaultPopulationColumns = PopulationColumns{Lat: "lat", Lon: "lon", Weight: "Pop"}

func (c PopulationColumns) mapping() []columnMapping {
	return []columnMapping{
		{file: c.Lat, canonical: colLat},
		{file: c.Lon, canonical: colLon},
		{file: c.Weight, canonical: colWeight},
	}
}

type columnMapping struct {
	file      string
	canonical string
}

// indexColumns maps trimmed header names to their position.
func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.TrimSpace(col)] = i
	}
	return m
}

// canonicalHeader rewrites header so the required columns carry their
// canonical names and every other column gets a name no row struct uses.
// All missing columns are reported in one error.
func canonicalHeader(header []string, mapping []columnMapping) ([]string, error) {
	cols := indexColumns(header)

	out := make([]string, len(header))
	for i := range header {
		out[i] = fmt.Sprintf("_col%d", i)
	}

	var missing []string
	for _, m := range mapping {
		idx, ok := cols[m.file]
		if !ok {
			missing = append(missing, m.file)
			continue
		}
		out[idx] = m.canonical
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return out, nil
}
