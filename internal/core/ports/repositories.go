package ports

import (
	"context"

	"github.com/samirrijal/reachmap/internal/core/domain"
)

// StopSource yields the stops table.
type StopSource interface {
	Stops(ctx context.Context) ([]domain.Stop, error)
}

// PopulationSource yields the population table.
type PopulationSource interface {
	Population(ctx context.Context) ([]domain.PopulationPoint, error)
}
