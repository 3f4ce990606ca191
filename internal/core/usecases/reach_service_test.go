package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/core/usecases"
	"github.com/samirrijal/reachmap/internal/pkg/geospatial"
)

func stop(id string, lat, lon float64) domain.Stop {
	return domain.Stop{StopID: id, Name: "Stop " + id, Location: domain.GeoPoint{Lat: lat, Lon: lon}}
}

func geomCoord(s domain.Stop) geom.Coord {
	return geom.Coord{s.Location.Lon, s.Location.Lat}
}

func TestReachService_Build_SingleStop(t *testing.T) {
	svc := usecases.NewReachService()

	area, err := svc.Build(context.Background(), []domain.Stop{stop("1", 0, 0)}, 1)
	require.NoError(t, err)
	require.False(t, area.IsEmpty())

	assert.Equal(t, 1, area.Geometry.NumPolygons())
	assert.Equal(t, 1, area.StopCount)
	assert.Equal(t, 1.0, area.BufferRadius)
	assert.Equal(t, domain.SRID, area.Geometry.SRID())
	// 64-gon inscribed in the unit circle.
	assert.InDelta(t, 32*math.Sin(2*math.Pi/64), area.Area(), 1e-9)

	b := area.Geometry.Bounds()
	assert.InDelta(t, -1, b.Min(0), 1e-9)
	assert.InDelta(t, 1, b.Max(0), 1e-9)
	assert.InDelta(t, -1, b.Min(1), 1e-9)
	assert.InDelta(t, 1, b.Max(1), 1e-9)
}

func TestReachService_Build_OverlappingStopsMerge(t *testing.T) {
	svc := usecases.NewReachService()

	area, err := svc.Build(context.Background(), []domain.Stop{stop("1", 0, 0), stop("2", 0, 1)}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, area.Geometry.NumPolygons())

	single := 32 * math.Sin(2*math.Pi/64)
	assert.Less(t, area.Area(), 2*single)
	assert.Greater(t, area.Area(), single)
}

func TestReachService_Build_DisjointStops(t *testing.T) {
	svc := usecases.NewReachService()

	area, err := svc.Build(context.Background(), []domain.Stop{stop("1", 0, 0), stop("2", 0, 10)}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, area.Geometry.NumPolygons())
}

func TestReachService_Build_CoversEveryStop(t *testing.T) {
	stops := []domain.Stop{
		stop("abando", 43.2610, -2.9270),
		stop("moyua", 43.2630, -2.9350),
		stop("deusto", 43.2710, -2.9460),
		stop("basauri", 43.2370, -2.8860),
	}
	svc := usecases.NewReachService()

	area, err := svc.Build(context.Background(), stops, 0.0045)
	require.NoError(t, err)

	union, err := geospatial.ToGEOS(area.Geometry)
	require.NoError(t, err)
	for _, st := range stops {
		disk := geospatial.Disk(geomCoord(st), 0.0045)
		assert.InDelta(t, 0, disk.Difference(union).Area(), 1e-12, "stop %s not covered", st.StopID)
	}
}

func TestReachService_Build_NoStops(t *testing.T) {
	svc := usecases.NewReachService()

	area, err := svc.Build(context.Background(), nil, 0.0045)
	require.NoError(t, err)
	assert.True(t, area.IsEmpty())
	assert.Zero(t, area.Area())
	assert.Zero(t, area.StopCount)
}

func TestReachService_Build_InvalidRadius(t *testing.T) {
	svc := usecases.NewReachService()

	for _, r := range []float64{0, -0.1, math.NaN()} {
		_, err := svc.Build(context.Background(), []domain.Stop{stop("1", 0, 0)}, r)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidParameter), "radius %g", r)
	}
}
