package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

const stopsQuery = `
		SELECT s.stop_id, s.name,
		       ST_Y(s.location::geometry) as lat,
		       ST_X(s.location::geometry) as lon
		FROM stops s
		JOIN agencies a ON a.id = s.agency_id
		WHERE $1 = '' OR a.slug = $1
		ORDER BY a.slug, s.stop_id
	`

// StopRepo reads stops from the transit database. It implements
// ports.StopSource and never writes.
type StopRepo struct {
	q          Querier
	agencySlug string
}

// NewStopRepo creates a new StopRepo. An empty agencySlug reads every agency.
func NewStopRepo(q Querier, agencySlug string) *StopRepo {
	return &StopRepo{q: q, agencySlug: agencySlug}
}

// Stops returns the stops of the configured agency ordered by stop_id.
func (r *StopRepo) Stops(ctx context.Context) (stops []domain.Stop, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLoadStops)
	defer span.End()
	defer metrics.ObserveOperation("load_stops", time.Now(), &err)

	rows, err := r.q.Query(ctx, stopsQuery, r.agencySlug)
	if err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Stop
		if err := rows.Scan(&s.StopID, &s.Name, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stops: %w", err)
	}

	span.SetAttributes(attribute.Int(telemetry.AttrStops, len(stops)))
	metrics.InputRows.WithLabelValues("stops").Add(float64(len(stops)))
	slog.Debug("stops loaded from database", "agency", r.agencySlug, "stops", len(stops))
	return stops, nil
}
