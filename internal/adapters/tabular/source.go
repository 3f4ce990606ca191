package tabular

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

type stopRow struct {
	ID   string  `csv:"stop_id"`
	Name string  `csv:"stop_name"`
	Lat  float64 `csv:"stop_lat,omitempty"`
	Lon  float64 `csv:"stop_lon,omitempty"`
}

type populationRow struct {
	Lat    float64 `csv:"lat"`
	Lon    float64 `csv:"lon"`
	Weight float64 `csv:"weight,omitempty"`
}

// File describes a table on disk. Files ending in .xlsx are read as
// workbooks; anything else is read as CSV.
type File struct {
	Path string
	// Sheet selects a workbook sheet; empty means the first one.
	Sheet string
}

func (f File) isXLSX() bool {
	return strings.EqualFold(filepath.Ext(f.Path), ".xlsx")
}

func decodeFile[T any](ctx context.Context, f File, mapping []columnMapping) ([]T, error) {
	if f.isXLSX() {
		r, err := openXLSX(f.Path, f.Sheet)
		if err != nil {
			return nil, err
		}
		return decodeAll[T](ctx, r, mapping)
	}

	r, closeFn, err := openCSV(f.Path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return decodeAll[T](ctx, r, mapping)
}

// StopFile reads stops from a CSV or XLSX table.
type StopFile struct {
	file    File
	columns StopColumns
}

// NewStopFile creates a StopFile.
func NewStopFile(file File, columns StopColumns) *StopFile {
	return &StopFile{file: file, columns: columns}
}

// Stops returns every stop with usable coordinates, in file order. Rows with
// no coordinates (GTFS generic nodes and boarding areas) are skipped.
func (s *StopFile) Stops(ctx context.Context) (stops []domain.Stop, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLoadStops)
	defer span.End()
	defer metrics.ObserveOperation("load_stops", time.Now(), &err)

	rows, err := decodeFile[stopRow](ctx, s.file, s.columns.mapping())
	if err != nil {
		return nil, fmt.Errorf("stops table %s: %w", s.file.Path, err)
	}

	stops = make([]domain.Stop, 0, len(rows))
	skipped := 0
	for i, r := range rows {
		if r.Lat == 0 && r.Lon == 0 {
			skipped++
			continue
		}
		loc := domain.GeoPoint{Lat: r.Lat, Lon: r.Lon}
		if !loc.Valid() {
			return nil, fmt.Errorf("stops table %s: row %d: %w: coordinate (%g, %g) out of range",
				s.file.Path, i+2, domain.ErrInvalidParameter, r.Lat, r.Lon)
		}
		stops = append(stops, domain.Stop{StopID: r.ID, Name: r.Name, Location: loc})
	}

	metrics.InputRows.WithLabelValues("stops").Add(float64(len(stops)))
	slog.Debug("stops loaded", "path", s.file.Path, "stops", len(stops), "skipped", skipped)
	return stops, nil
}

// PopulationFile reads weighted population points from a CSV or XLSX table.
type PopulationFile struct {
	file    File
	columns PopulationColumns
}

// NewPopulationFile creates a PopulationFile.
func NewPopulationFile(file File, columns PopulationColumns) *PopulationFile {
	return &PopulationFile{file: file, columns: columns}
}

// Population returns every row as a point. An empty weight cell counts as 0.
func (p *PopulationFile) Population(ctx context.Context) (points []domain.PopulationPoint, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLoadPopulation)
	defer span.End()
	defer metrics.ObserveOperation("load_population", time.Now(), &err)

	rows, err := decodeFile[populationRow](ctx, p.file, p.columns.mapping())
	if err != nil {
		return nil, fmt.Errorf("population table %s: %w", p.file.Path, err)
	}

	points = make([]domain.PopulationPoint, len(rows))
	for i, r := range rows {
		loc := domain.GeoPoint{Lat: r.Lat, Lon: r.Lon}
		if !loc.Valid() {
			return nil, fmt.Errorf("population table %s: row %d: %w: coordinate (%g, %g) out of range",
				p.file.Path, i+2, domain.ErrInvalidParameter, r.Lat, r.Lon)
		}
		points[i] = domain.PopulationPoint{Location: loc, Population: r.Weight}
	}

	metrics.InputRows.WithLabelValues("population").Add(float64(len(points)))
	slog.Debug("population loaded", "path", p.file.Path, "points", len(points))
	return points, nil
}
