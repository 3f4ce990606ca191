package usecases_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/core/ports"
	"github.com/samirrijal/reachmap/internal/core/usecases"
)

// --- Mock sources ---

type mockStopSource struct {
	stopsFn func(ctx context.Context) ([]domain.Stop, error)
}

func (m *mockStopSource) Stops(ctx context.Context) ([]domain.Stop, error) {
	if m.stopsFn != nil {
		return m.stopsFn(ctx)
	}
	return nil, nil
}

type mockPopulationSource struct {
	populationFn func(ctx context.Context) ([]domain.PopulationPoint, error)
}

func (m *mockPopulationSource) Population(ctx context.Context) ([]domain.PopulationPoint, error) {
	if m.populationFn != nil {
		return m.populationFn(ctx)
	}
	return nil, nil
}

// --- Mock renderers ---

type mockMapRenderer struct {
	mu          sync.Mutex
	paths       []string
	reach       *domain.ReachArea
	clustered   []domain.ClusteredPoint
	clusterOpts ports.ClusterRenderOptions
	stopsOpts   ports.RenderOptions
	renderErr   error
}

func (m *mockMapRenderer) record(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
}

func (m *mockMapRenderer) RenderPopulationAndStops(ctx context.Context, path string, population []domain.PopulationPoint, stops []domain.Stop, opts ports.RenderOptions) (*domain.MapArtifact, error) {
	m.record(path)
	m.stopsOpts = opts
	return &domain.MapArtifact{Kind: domain.ArtifactPopulationStops, Path: path, Markers: len(stops), Circles: len(population)}, nil
}

func (m *mockMapRenderer) RenderPopulationAndReach(ctx context.Context, path string, reach *domain.ReachArea, population []domain.PopulationPoint, opts ports.RenderOptions) (*domain.MapArtifact, error) {
	m.record(path)
	m.reach = reach
	return &domain.MapArtifact{Kind: domain.ArtifactPopulationReach, Path: path, Circles: len(population)}, nil
}

func (m *mockMapRenderer) RenderClusters(ctx context.Context, path string, points []domain.ClusteredPoint, opts ports.ClusterRenderOptions) (*domain.MapArtifact, error) {
	m.record(path)
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.clustered = points
	m.clusterOpts = opts
	return &domain.MapArtifact{Kind: domain.ArtifactClusters, Path: path, Circles: len(points)}, nil
}

type mockChartRenderer struct {
	summaries []domain.ClusterSummary
	colors    int
}

func (m *mockChartRenderer) RenderClusterSummary(ctx context.Context, path string, summaries []domain.ClusterSummary, clusterCount int, seed uint64) (*domain.MapArtifact, error) {
	m.summaries = summaries
	m.colors = clusterCount
	return &domain.MapArtifact{Kind: domain.ArtifactClusterSummary, Path: path, Shapes: len(summaries)}, nil
}

func fixtureSources() (*mockStopSource, *mockPopulationSource) {
	stops := &mockStopSource{stopsFn: func(ctx context.Context) ([]domain.Stop, error) {
		return []domain.Stop{stop("1", 0, 0), stop("2", 0, 10)}, nil
	}}
	population := &mockPopulationSource{populationFn: func(ctx context.Context) ([]domain.PopulationPoint, error) {
		return []domain.PopulationPoint{pop(0, 0, 1), pop(0, 0.0001, 1), pop(10, 10, 1)}, nil
	}}
	return stops, population
}

func request(dir string) usecases.AnalysisRequest {
	return usecases.AnalysisRequest{
		BufferRadius:   1,
		Eps:            0.001,
		MinSamples:     2,
		SizeScale:      100,
		StopsZoom:      2,
		ReachZoom:      7,
		ClustersZoom:   7,
		ClusterColors:  1000,
		PaletteSeed:    1,
		OutputDir:      dir,
		StopsMap:       "population_stops.html",
		ReachMap:       "population_reach.html",
		ClustersMap:    "clusters.html",
		ClusterSummary: "cluster_summary.html",
	}
}

func TestAnalysisService_Run(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	stops, population := fixtureSources()
	maps := &mockMapRenderer{}
	charts := &mockChartRenderer{}

	svc := usecases.NewAnalysisService(stops, population, maps, charts)
	report, err := svc.Run(context.Background(), request(dir))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Stops)
	assert.Equal(t, 3, report.Population)
	assert.Equal(t, 1, report.Clusters)
	assert.Equal(t, 1, report.NoisePoints)
	assert.Greater(t, report.ReachArea, 0.0)
	require.Len(t, report.Summaries, 2)

	require.Len(t, report.Artifacts, 4)
	assert.Equal(t, domain.ArtifactPopulationStops, report.Artifacts[0].Kind)
	assert.Equal(t, domain.ArtifactPopulationReach, report.Artifacts[1].Kind)
	assert.Equal(t, domain.ArtifactClusters, report.Artifacts[2].Kind)
	assert.Equal(t, domain.ArtifactClusterSummary, report.Artifacts[3].Kind)
	assert.Equal(t, filepath.Join(dir, "clusters.html"), report.Artifacts[2].Path)
	assert.DirExists(t, dir)

	assert.Equal(t, 2, maps.reach.Geometry.NumPolygons())
	require.Len(t, maps.clustered, 3)
	assert.Equal(t, 0, maps.clustered[0].Cluster)
	assert.Equal(t, domain.NoiseLabel, maps.clustered[2].Cluster)
	assert.Equal(t, 1000, maps.clusterOpts.ClusterCount)
	assert.Equal(t, uint64(1), maps.clusterOpts.Seed)
	assert.Equal(t, 2, maps.stopsOpts.Zoom)
	assert.Equal(t, 100.0, maps.stopsOpts.SizeScale)
	assert.Len(t, charts.summaries, 2)
}

func TestAnalysisService_Run_EnlargesPalette(t *testing.T) {
	stops, population := fixtureSources()
	maps := &mockMapRenderer{}
	charts := &mockChartRenderer{}

	req := request(t.TempDir())
	req.ClusterColors = 1

	_, err := usecases.NewAnalysisService(stops, population, maps, charts).Run(context.Background(), req)
	require.NoError(t, err)
	// One cluster plus noise.
	assert.Equal(t, 2, maps.clusterOpts.ClusterCount)
	assert.Equal(t, 2, charts.colors)
}

func TestAnalysisService_Run_WithoutChart(t *testing.T) {
	stops, population := fixtureSources()

	report, err := usecases.NewAnalysisService(stops, population, &mockMapRenderer{}, nil).Run(context.Background(), request(t.TempDir()))
	require.NoError(t, err)
	assert.Len(t, report.Artifacts, 3)
}

func TestAnalysisService_Run_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	stops := &mockStopSource{stopsFn: func(ctx context.Context) ([]domain.Stop, error) {
		return nil, boom
	}}
	_, population := fixtureSources()
	maps := &mockMapRenderer{}

	_, err := usecases.NewAnalysisService(stops, population, maps, nil).Run(context.Background(), request(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load stops")
	assert.Empty(t, maps.paths)
}

func TestAnalysisService_Run_InvalidClusterParameters(t *testing.T) {
	stops, population := fixtureSources()
	req := request(t.TempDir())
	req.MinSamples = 0

	_, err := usecases.NewAnalysisService(stops, population, &mockMapRenderer{}, nil).Run(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestAnalysisService_Run_RenderError(t *testing.T) {
	stops, population := fixtureSources()
	maps := &mockMapRenderer{renderErr: domain.ErrColorOutOfRange}

	_, err := usecases.NewAnalysisService(stops, population, maps, nil).Run(context.Background(), request(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrColorOutOfRange)
}

func TestAnalysisService_Run_RequiresOutputDir(t *testing.T) {
	stops, population := fixtureSources()
	req := request("")

	_, err := usecases.NewAnalysisService(stops, population, &mockMapRenderer{}, nil).Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
