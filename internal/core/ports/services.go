package ports

import (
	"context"

	"github.com/samirrijal/reachmap/internal/core/domain"
)

// RenderOptions controls the view and marker scale of a map.
type RenderOptions struct {
	// SizeScale divides each population weight to get the circle radius in pixels.
	SizeScale float64
	Zoom      int
	// FitBounds fits the initial view to the input extent instead of using Zoom.
	FitBounds bool
}

// ClusterRenderOptions extends RenderOptions with the cluster palette.
type ClusterRenderOptions struct {
	RenderOptions
	// ClusterCount is the palette size; it must exceed the largest label,
	// and account for the noise label when noise points are drawn.
	ClusterCount int
	Seed         uint64
}

// MapRenderer writes interactive map documents.
type MapRenderer interface {
	RenderPopulationAndStops(ctx context.Context, path string, population []domain.PopulationPoint, stops []domain.Stop, opts RenderOptions) (*domain.MapArtifact, error)
	RenderPopulationAndReach(ctx context.Context, path string, reach *domain.ReachArea, population []domain.PopulationPoint, opts RenderOptions) (*domain.MapArtifact, error)
	RenderClusters(ctx context.Context, path string, points []domain.ClusteredPoint, opts ClusterRenderOptions) (*domain.MapArtifact, error)
}

// ClusterChartRenderer writes a per-cluster population chart.
type ClusterChartRenderer interface {
	RenderClusterSummary(ctx context.Context, path string, summaries []domain.ClusterSummary, clusterCount int, seed uint64) (*domain.MapArtifact, error)
}
