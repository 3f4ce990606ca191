// Package charts renders cluster statistics with go-echarts.
package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/reachmap/internal/core/domain"
	"github.com/samirrijal/reachmap/internal/pkg/metrics"
	"github.com/samirrijal/reachmap/internal/pkg/palette"
	"github.com/samirrijal/reachmap/internal/pkg/telemetry"
)

// SummaryRenderer implements ports.ClusterChartRenderer.
type SummaryRenderer struct {
	// AssetsHost overrides where the echarts script is loaded from.
	AssetsHost string
}

// NewSummaryRenderer creates a SummaryRenderer using the default assets host.
func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{}
}

// RenderClusterSummary writes a bar chart of population per cluster. Bars
// use the same shuffled palette as the cluster map, so a bar and its points
// share a color for equal clusterCount and seed.
func (r *SummaryRenderer) RenderClusterSummary(ctx context.Context, path string, summaries []domain.ClusterSummary, clusterCount int, seed uint64) (artifact *domain.MapArtifact, err error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanRender)
	defer span.End()
	defer metrics.ObserveOperation("render_"+string(domain.ArtifactClusterSummary), time.Now(), &err)
	span.SetAttributes(
		attribute.String(telemetry.AttrArtifact, string(domain.ArtifactClusterSummary)),
		attribute.String(telemetry.AttrOutputPath, path),
	)

	colors, err := palette.Shuffled(clusterCount, seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: no clusters to chart", domain.ErrNoPoints)
	}

	x := make([]string, len(summaries))
	y := make([]opts.BarData, len(summaries))
	var total float64
	for i, s := range summaries {
		color, err := colors.Lookup(s.Label)
		if err != nil {
			if errors.Is(err, palette.ErrOutOfRange) {
				return nil, fmt.Errorf("%w: %w", domain.ErrColorOutOfRange, err)
			}
			return nil, err
		}
		x[i] = labelName(s.Label)
		y[i] = opts.BarData{
			Name:      x[i],
			Value:     s.Population,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
		total += s.Population
	}

	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: "Population clusters", Width: "100%", Height: "720px", AssetsHost: r.AssetsHost}),
		echarts.WithTitleOpts(opts.Title{Title: "Population per cluster", Subtitle: fmt.Sprintf("clusters=%d population=%s", len(summaries), strconv.FormatFloat(total, 'f', -1, 64))}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		echarts.WithXAxisOpts(opts.XAxis{Name: "cluster"}),
		echarts.WithYAxisOpts(opts.YAxis{Name: "population"}),
	)
	bar.SetXAxis(x).AddSeries("population", y)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render cluster summary: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	metrics.ArtifactsWritten.WithLabelValues(string(domain.ArtifactClusterSummary)).Inc()
	metrics.ArtifactBytes.WithLabelValues(string(domain.ArtifactClusterSummary)).Observe(float64(buf.Len()))
	slog.Info("cluster summary written", "path", path, "bars", len(summaries), "bytes", buf.Len())

	return &domain.MapArtifact{
		Kind:   domain.ArtifactClusterSummary,
		Path:   path,
		Shapes: len(summaries),
		Bytes:  int64(buf.Len()),
	}, nil
}

func labelName(label int) string {
	if label == domain.NoiseLabel {
		return "noise"
	}
	return "cluster " + strconv.Itoa(label)
}
