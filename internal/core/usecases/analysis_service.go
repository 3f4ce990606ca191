package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/core/ports"
	"github.com/samirrijal/reachmap/internal/pkg/density"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

// AnalysisRequest parameterises one analysis run.
type AnalysisRequest struct {
	BufferRadius float64 // degrees
	Eps          float64 // radians
	MinSamples   int

	SizeScale     float64
	StopsZoom     int
	ReachZoom     int
	ClustersZoom  int
	FitBounds     bool
	ClusterColors int
	PaletteSeed   uint64

	OutputDir string
	StopsMap  string
	ReachMap  string
	// ClustersMap and ClusterSummary are file names inside OutputDir. An empty
	// ClusterSummary skips the chart.
	ClustersMap    string
	ClusterSummary string
}

// AnalysisService runs the full load, reach, cluster and render pipeline.
type AnalysisService struct {
	stops      ports.StopSource
	population ports.PopulationSource
	maps       ports.MapRenderer
	charts     ports.ClusterChartRenderer
	reach      *ReachService
	cluster    *ClusterService
}

// NewAnalysisService creates a new AnalysisService. charts may be nil.
func NewAnalysisService(
	stops ports.StopSource,
	population ports.PopulationSource,
	maps ports.MapRenderer,
	charts ports.ClusterChartRenderer,
) *AnalysisService {
	return &AnalysisService{
		stops:      stops,
		population: population,
		maps:       maps,
		charts:     charts,
		reach:      NewReachService(),
		cluster:    NewClusterService(),
	}
}

// Run executes one analysis and reports what was written.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (report *domain.AnalysisReport, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAnalysis)
	defer span.End()
	defer metrics.ObserveOperation("analysis", time.Now(), &err)

	report = &domain.AnalysisReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := slog.With("run_id", report.RunID)
	span.SetAttributes(attribute.String("reachmap.run_id", report.RunID))

	if req.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", domain.ErrInvalidParameter)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// Load
	var (
		stops      []domain.Stop
		population []domain.PopulationPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stops, err = s.stops.Stops(gctx)
		if err != nil {
			return fmt.Errorf("load stops: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		population, err = s.population.Population(gctx)
		if err != nil {
			return fmt.Errorf("load population: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Stops = len(stops)
	report.Population = len(population)
	log.Info("inputs loaded", "stops", len(stops), "population_points", len(population))

	// Reach and clusters are independent.
	var (
		area      *domain.ReachArea
		clustered []domain.ClusteredPoint
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		area, err = s.reach.Build(gctx, stops, req.BufferRadius)
		return err
	})
	g.Go(func() error {
		var err error
		clustered, err = s.cluster.Assign(gctx, population, req.Eps, req.MinSamples)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labels := make([]int, len(clustered))
	for i, p := range clustered {
		labels[i] = p.Cluster
		if p.IsNoise() {
			report.NoisePoints++
		}
	}
	report.Clusters = density.CountClusters(labels)
	report.ReachArea = area.Area()
	report.Summaries = Summarize(clustered)

	colors := paletteSize(req.ClusterColors, report.Clusters, report.NoisePoints > 0)
	if colors != req.ClusterColors {
		log.Warn("cluster palette too small, enlarging",
			"configured", req.ClusterColors,
			"clusters", report.Clusters,
			"noise", report.NoisePoints > 0,
			"colors", colors,
		)
	}

	// Render
	opts := func(zoom int) ports.RenderOptions {
		return ports.RenderOptions{SizeScale: req.SizeScale, Zoom: zoom, FitBounds: req.FitBounds}
	}
	jobs := []func(context.Context) (*domain.MapArtifact, error){
		func(ctx context.Context) (*domain.MapArtifact, error) {
			return s.maps.RenderPopulationAndStops(ctx, filepath.Join(req.OutputDir, req.StopsMap), population, stops, opts(req.StopsZoom))
		},
		func(ctx context.Context) (*domain.MapArtifact, error) {
			return s.maps.RenderPopulationAndReach(ctx, filepath.Join(req.OutputDir, req.ReachMap), area, population, opts(req.ReachZoom))
		},
		func(ctx context.Context) (*domain.MapArtifact, error) {
			return s.maps.RenderClusters(ctx, filepath.Join(req.OutputDir, req.ClustersMap), clustered, ports.ClusterRenderOptions{
				RenderOptions: opts(req.ClustersZoom),
				ClusterCount:  colors,
				Seed:          req.PaletteSeed,
			})
		},
	}
	if s.charts != nil && req.ClusterSummary != "" {
		jobs = append(jobs, func(ctx context.Context) (*domain.MapArtifact, error) {
			return s.charts.RenderClusterSummary(ctx, filepath.Join(req.OutputDir, req.ClusterSummary), report.Summaries, colors, req.PaletteSeed)
		})
	}

	artifacts := make([]*domain.MapArtifact, len(jobs))
	g, gctx = errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			a, err := job(gctx)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		report.Artifacts = append(report.Artifacts, *a)
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info("analysis complete",
		"clusters", report.Clusters,
		"noise", report.NoisePoints,
		"reach_area_sq_deg", report.ReachArea,
		"artifacts", len(report.Artifacts),
		"duration", report.Duration,
	)
	return report, nil
}

// paletteSize returns the number of colors needed so that every label,
// noise included, has one.
func paletteSize(configured, clusters int, noise bool) int {
	need := clusters
	if noise {
		need++
	}
	return max(configured, need)
}
