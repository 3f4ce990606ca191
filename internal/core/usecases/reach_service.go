package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/twpayne/go-geom"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/pkg/geospatial"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

// ReachService builds the area reachable from a set of stops.
type ReachService struct{}

// NewReachService creates a new ReachService.
func NewReachService() *ReachService {
	return &ReachService{}
}

// Build buffers every stop by bufferRadius and merges the disks into one
// (possibly disconnected) area.
//
// The radius is applied in coordinate units, i.e. degrees, with no metric
// correction: a 0.0045° buffer is roughly 500 m north-south but narrower
// east-west away from the equator. Callers pick the radius accordingly.
func (s *ReachService) Build(ctx context.Context, stops []domain.Stop, bufferRadius float64) (area *domain.ReachArea, err error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanBuildReach)
	defer span.End()
	defer metrics.ObserveOperation("reach", time.Now(), &err)

	if math.IsNaN(bufferRadius) || bufferRadius <= 0 {
		return nil, fmt.Errorf("%w: buffer radius must be positive, got %g", domain.ErrInvalidParameter, bufferRadius)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrStops, len(stops)))

	centers := make([]geom.Coord, 0, len(stops))
	for _, st := range stops {
		centers = append(centers, geom.Coord{st.Location.Lon, st.Location.Lat})
	}

	mp, err := geospatial.UnionBuffers(centers, bufferRadius, domain.SRID)
	if err != nil {
		return nil, fmt.Errorf("union stop buffers: %w", err)
	}

	area = &domain.ReachArea{
		Geometry:     mp,
		BufferRadius: bufferRadius,
		StopCount:    len(stops),
	}

	metrics.ReachAreaSquareDegrees.Set(area.Area())
	metrics.ReachAreaPolygons.Set(float64(mp.NumPolygons()))

	if area.IsEmpty() {
		slog.Warn("reach area is empty", "stops", len(stops))
	} else {
		slog.Info("reach area built", "stops", len(stops), "polygons", mp.NumPolygons(), "area_sq_deg", area.Area())
	}
	return area, nil
}
