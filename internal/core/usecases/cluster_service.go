package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/pkg/density"
	"github.com/samirrijal/reachmap/internal/pkg/geospatial"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

// ClusterService groups population points with weighted DBSCAN.
type ClusterService struct{}

// NewClusterService creates a new ClusterService.
func NewClusterService() *ClusterService {
	return &ClusterService{}
}

// Cluster returns one label per point, in input order. eps is a central
// angle in radians (see geospatial.KilometersToRadians); a point is core when
// the population within eps of it, its own included, reaches minSamples.
// Noise points get domain.NoiseLabel.
//
// The full pairwise distance matrix is held in memory, so cost grows with
// the square of len(points).
func (s *ClusterService) Cluster(ctx context.Context, points []domain.PopulationPoint, eps float64, minSamples int) (labels []int, err error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanCluster)
	defer span.End()
	defer metrics.ObserveOperation("cluster", time.Now(), &err)

	params := density.Params{Eps: eps, MinSamples: float64(minSamples)}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrPoints, len(points)))

	if len(points) == 0 {
		metrics.ClustersFound.Set(0)
		metrics.NoisePoints.Set(0)
		return []int{}, nil
	}

	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	weights := make([]float64, len(points))
	for i, p := range points {
		lats[i] = geospatial.ToRadians(p.Location.Lat)
		lons[i] = geospatial.ToRadians(p.Location.Lon)
		weights[i] = p.Population
	}

	dist := geospatial.HaversineMatrix(lats, lons)
	metrics.DistanceMatrixCells.Set(float64(len(points)) * float64(len(points)))

	labels, err = density.DBSCAN(dist, weights, params)
	if err != nil {
		if errors.Is(err, density.ErrInvalidParams) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
		}
		return nil, fmt.Errorf("dbscan: %w", err)
	}

	clusters := density.CountClusters(labels)
	noise := countNoise(labels)
	metrics.ClustersFound.Set(float64(clusters))
	metrics.NoisePoints.Set(float64(noise))
	span.SetAttributes(attribute.Int(telemetry.AttrClusters, clusters))

	slog.Info("population clustered",
		"points", len(points),
		"clusters", clusters,
		"noise", noise,
		"eps_km", geospatial.RadiansToKilometers(eps),
		"min_samples", minSamples,
	)
	return labels, nil
}

// Assign clusters points and pairs each with its label.
func (s *ClusterService) Assign(ctx context.Context, points []domain.PopulationPoint, eps float64, minSamples int) ([]domain.ClusteredPoint, error) {
	labels, err := s.Cluster(ctx, points, eps, minSamples)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ClusteredPoint, len(points))
	for i, p := range points {
		out[i] = domain.ClusteredPoint{PopulationPoint: p, Cluster: labels[i]}
	}
	return out, nil
}

// Summarize aggregates clustered points per label, noise included, sorted by
// label. Centroids are population-weighted unless a group has no population.
func Summarize(points []domain.ClusteredPoint) []domain.ClusterSummary {
	groups := make(map[int][]domain.ClusteredPoint)
	for _, p := range points {
		groups[p.Cluster] = append(groups[p.Cluster], p)
	}

	summaries := make([]domain.ClusterSummary, 0, len(groups))
	for label, members := range groups {
		lats := make([]float64, len(members))
		lons := make([]float64, len(members))
		weights := make([]float64, len(members))
		var total float64
		for i, m := range members {
			lats[i] = m.Location.Lat
			lons[i] = m.Location.Lon
			weights[i] = m.Population
			total += m.Population
		}
		if total == 0 {
			weights = nil
		}

		centroid := domain.GeoPoint{Lat: stat.Mean(lats, weights), Lon: stat.Mean(lons, weights)}

		var radius float64
		for _, m := range members {
			d := geospatial.Haversine(centroid.Lat, centroid.Lon, m.Location.Lat, m.Location.Lon)
			radius = math.Max(radius, d)
		}

		summaries = append(summaries, domain.ClusterSummary{
			Label:        label,
			Points:       len(members),
			Population:   total,
			Centroid:     centroid,
			RadiusMeters: radius,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Label < summaries[j].Label })
	return summaries
}

func countNoise(labels []int) int {
	n := 0
	for _, l := range labels {
		if l == domain.NoiseLabel {
			n++
		}
	}
	return n
}
