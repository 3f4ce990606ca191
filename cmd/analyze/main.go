package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/reachmap/internal/adapters/charts"
	"github.com/samirrijal/reachmap/internal/adapters/mapview"
	"github.com/samirrijal/reachmap/internal/adapters/postgres"
	"github.com/samirrijal/reachmap/internal/adapters/tabular"
	"github.com/samirrijal/reachmap/internal/core/ports"
	"github.com/samirrijal/reachmap/internal/core/usecases"
	"github.com/samirrijal/reachmap/internal/pkg/config"
	"github.com/samirrijal/reachmap/internal/pkg/geospatial"
	"github.com/samirrijal/reachmap/internal/pkg/logging"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

const serviceName = "reachmap-analyze"

func main() {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("REACHMAP_CONFIG"); path != "" {
		cfg, err = config.LoadFile(serviceName, path)
	} else {
		cfg, err = config.Load(serviceName)
	}
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Sources
	var stopSource ports.StopSource
	switch cfg.Input.StopsSource {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		stopSource = postgres.NewStopRepo(db.Pool, cfg.Input.AgencySlug)
	default:
		stopSource = tabular.NewStopFile(
			tabular.File{Path: cfg.Input.StopsPath},
			tabular.StopColumns(cfg.Input.StopColumns),
		)
	}
	populationSource := tabular.NewPopulationFile(
		tabular.File{Path: cfg.Input.PopulationPath, Sheet: cfg.Input.Sheet},
		tabular.PopulationColumns(cfg.Input.PopColumns),
	)

	// Renderers
	maps := mapview.New(mapview.Config{TileURL: cfg.Render.TileURL, Attribution: cfg.Render.Attribution})
	chart := charts.NewSummaryRenderer()

	svc := usecases.NewAnalysisService(stopSource, populationSource, maps, chart)
	report, err := svc.Run(ctx, usecases.AnalysisRequest{
		BufferRadius:   cfg.Reach.BufferDegrees,
		Eps:            geospatial.KilometersToRadians(cfg.Cluster.EpsKm),
		MinSamples:     cfg.Cluster.MinSamples,
		SizeScale:      cfg.Render.CircleSizeScale,
		StopsZoom:      cfg.Render.StopsZoom,
		ReachZoom:      cfg.Render.ReachZoom,
		ClustersZoom:   cfg.Render.ClustersZoom,
		FitBounds:      cfg.Render.FitBounds,
		ClusterColors:  cfg.Render.ClusterColors,
		PaletteSeed:    cfg.Render.PaletteSeed,
		OutputDir:      cfg.Output.Dir,
		StopsMap:       cfg.Output.StopsMap,
		ReachMap:       cfg.Output.ReachMap,
		ClustersMap:    cfg.Output.ClustersMap,
		ClusterSummary: cfg.Output.ClusterSummary,
	})

	if cfg.Metrics.TextfilePath != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			slog.Warn("metrics textfile not written", "error", werr)
		}
	}
	if err != nil {
		log.Fatalf("analysis: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}
