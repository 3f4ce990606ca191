// Package mapview writes self-contained Leaflet map documents.
package mapview

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/core/ports"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/palette"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

//go:embed templates/map.html.tmpl
var templateFS embed.FS

var mapTemplate = template.Must(template.ParseFS(templateFS, "templates/map.html.tmpl"))

const (
	stopsCircleColor = "blue"
	reachCircleColor = "red"
)

// Config sets the basemap shared by every map.
type Config struct {
	TileURL     string
	Attribution string
}

// Renderer implements ports.MapRenderer.
type Renderer struct {
	cfg Config
}

// New creates a Renderer.
func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

type circle struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
	Tooltip string  `json:"tooltip"`
}

type marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type mapData struct {
	Center      domain.GeoPoint `json:"center"`
	Bounds      domain.Bounds   `json:"bounds"`
	Zoom        int             `json:"zoom"`
	FitBounds   bool            `json:"fitBounds"`
	Tiles       string          `json:"tiles"`
	Attribution string          `json:"attribution"`
	Circles     []circle        `json:"circles"`
	Markers     []marker        `json:"markers"`
	Reach       json.RawMessage `json:"reach,omitempty"`

	shapes int
}

// RenderPopulationAndStops draws population circles in blue and one marker
// per stop. Either set may be empty but not both.
func (r *Renderer) RenderPopulationAndStops(ctx context.Context, path string, population []domain.PopulationPoint, stops []domain.Stop, opts ports.RenderOptions) (*domain.MapArtifact, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if len(population) == 0 && len(stops) == 0 {
		return nil, fmt.Errorf("%w: population or stops required", domain.ErrNoPoints)
	}

	locs := make([]domain.GeoPoint, 0, len(population)+len(stops))
	for _, p := range population {
		locs = append(locs, p.Location)
	}
	for _, s := range stops {
		locs = append(locs, s.Location)
	}

	data := r.newMapData(locs, opts)
	data.Circles = populationCircles(population, opts.SizeScale, stopsCircleColor)
	data.Markers = make([]marker, len(stops))
	for i, s := range stops {
		data.Markers[i] = marker{Lat: s.Location.Lat, Lon: s.Location.Lon, Popup: s.Name}
	}

	return r.write(ctx, path, domain.ArtifactPopulationStops, data)
}

// RenderPopulationAndReach draws the reach area as a GeoJSON overlay under
// red population circles. An empty reach area adds no overlay. The view is
// centered on the population, or on the reach area when there is none.
func (r *Renderer) RenderPopulationAndReach(ctx context.Context, path string, reach *domain.ReachArea, population []domain.PopulationPoint, opts ports.RenderOptions) (*domain.MapArtifact, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	locs := make([]domain.GeoPoint, len(population))
	for i, p := range population {
		locs[i] = p.Location
	}
	if len(locs) == 0 && !reach.IsEmpty() {
		b := reach.Geometry.Bounds()
		locs = []domain.GeoPoint{
			{Lat: b.Min(1), Lon: b.Min(0)},
			{Lat: b.Max(1), Lon: b.Max(0)},
		}
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: population or reach area required", domain.ErrNoPoints)
	}

	data := r.newMapData(locs, opts)
	data.Circles = populationCircles(population, opts.SizeScale, reachCircleColor)

	if !reach.IsEmpty() {
		feature := &geojson.Feature{
			Geometry: reach.Geometry,
			Properties: map[string]interface{}{
				"stops":         reach.StopCount,
				"buffer_radius": reach.BufferRadius,
			},
		}
		raw, err := json.Marshal(feature)
		if err != nil {
			return nil, fmt.Errorf("encode reach area: %w", err)
		}
		data.Reach = raw
		data.shapes = reach.Geometry.NumPolygons()
	}

	return r.write(ctx, path, domain.ArtifactPopulationReach, data)
}

// RenderClusters draws each point in the color of its cluster label. The
// palette holds opts.ClusterCount colors shuffled by opts.Seed; the noise
// label takes the last one.
func (r *Renderer) RenderClusters(ctx context.Context, path string, points []domain.ClusteredPoint, opts ports.ClusterRenderOptions) (*domain.MapArtifact, error) {
	if err := validateOptions(opts.RenderOptions); err != nil {
		return nil, err
	}
	colors, err := palette.Shuffled(opts.ClusterCount, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: clustered points required", domain.ErrNoPoints)
	}

	locs := make([]domain.GeoPoint, len(points))
	circles := make([]circle, len(points))
	for i, p := range points {
		color, err := colors.Lookup(p.Cluster)
		if err != nil {
			if errors.Is(err, palette.ErrOutOfRange) {
				return nil, fmt.Errorf("%w: %w", domain.ErrColorOutOfRange, err)
			}
			return nil, err
		}
		locs[i] = p.Location
		circles[i] = circle{
			Lat:     p.Location.Lat,
			Lon:     p.Location.Lon,
			Radius:  p.Population / opts.SizeScale,
			Color:   color,
			Tooltip: fmt.Sprintf("Cluster: %d, Population: %s", p.Cluster, formatNumber(p.Population)),
		}
	}

	data := r.newMapData(locs, opts.RenderOptions)
	data.Circles = circles

	return r.write(ctx, path, domain.ArtifactClusters, data)
}

func validateOptions(opts ports.RenderOptions) error {
	var errs []error
	if !(opts.SizeScale > 0) {
		errs = append(errs, fmt.Errorf("%w: size scale must be positive, got %g", domain.ErrInvalidParameter, opts.SizeScale))
	}
	if opts.Zoom < 0 {
		errs = append(errs, fmt.Errorf("%w: zoom must not be negative, got %d", domain.ErrInvalidParameter, opts.Zoom))
	}
	return errors.Join(errs...)
}

func (r *Renderer) newMapData(locs []domain.GeoPoint, opts ports.RenderOptions) *mapData {
	center, bounds := extent(locs)
	return &mapData{
		Center:      center,
		Bounds:      bounds,
		Zoom:        opts.Zoom,
		FitBounds:   opts.FitBounds,
		Tiles:       r.cfg.TileURL,
		Attribution: r.cfg.Attribution,
	}
}

// extent returns the mean position and the bounding box of locs, which must
// not be empty.
func extent(locs []domain.GeoPoint) (domain.GeoPoint, domain.Bounds) {
	lats := make([]float64, len(locs))
	lons := make([]float64, len(locs))
	for i, l := range locs {
		lats[i] = l.Lat
		lons[i] = l.Lon
	}

	center := domain.GeoPoint{Lat: stat.Mean(lats, nil), Lon: stat.Mean(lons, nil)}
	bounds := domain.Bounds{
		MinLat: floats.Min(lats),
		MinLon: floats.Min(lons),
		MaxLat: floats.Max(lats),
		MaxLon: floats.Max(lons),
	}
	return center, bounds
}

func populationCircles(population []domain.PopulationPoint, sizeScale float64, color string) []circle {
	out := make([]circle, len(population))
	for i, p := range population {
		out[i] = circle{
			Lat:     p.Location.Lat,
			Lon:     p.Location.Lon,
			Radius:  p.Population / sizeScale,
			Color:   color,
			Tooltip: "Population: " + formatNumber(p.Population),
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *Renderer) write(ctx context.Context, path string, kind domain.ArtifactKind, data *mapData) (artifact *domain.MapArtifact, err error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanRender)
	defer span.End()
	defer metrics.ObserveOperation("render_"+string(kind), time.Now(), &err)
	span.SetAttributes(
		attribute.String(telemetry.AttrArtifact, string(kind)),
		attribute.String(telemetry.AttrOutputPath, path),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, struct {
		Title string
		Data  *mapData
	}{Title: string(kind), Data: data}); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	artifact = &domain.MapArtifact{
		Kind:    kind,
		Path:    path,
		Center:  data.Center,
		Bounds:  data.Bounds,
		Zoom:    data.Zoom,
		Markers: len(data.Markers),
		Circles: len(data.Circles),
		Shapes:  data.shapes,
		Bytes:   int64(buf.Len()),
	}

	metrics.ArtifactsWritten.WithLabelValues(string(kind)).Inc()
	metrics.ArtifactBytes.WithLabelValues(string(kind)).Observe(float64(buf.Len()))
	slog.Info("map written", "kind", kind, "path", path, "circles", artifact.Circles, "markers", artifact.Markers, "bytes", artifact.Bytes)
	return artifact, nil
}
