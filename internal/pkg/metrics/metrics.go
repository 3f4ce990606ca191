package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis metrics
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reachmap",
		Subsystem: "analysis",
		Name:      "operation_duration_seconds",
		Help:      "Duration of reach, cluster and render operations",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"operation"})

	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reachmap",
		Subsystem: "analysis",
		Name:      "operation_errors_total",
		Help:      "Total failed reach, cluster and render operations",
	}, []string{"operation"})

	InputRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reachmap",
		Subsystem: "input",
		Name:      "rows_total",
		Help:      "Total rows read from input tables",
	}, []string{"table"})

	ClustersFound = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reachmap",
		Subsystem: "cluster",
		Name:      "clusters",
		Help:      "Number of clusters found by the last clustering run",
	})

	NoisePoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reachmap",
		Subsystem: "cluster",
		Name:      "noise_points",
		Help:      "Number of points labelled noise by the last clustering run",
	})

	DistanceMatrixCells = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reachmap",
		Subsystem: "cluster",
		Name:      "distance_matrix_cells",
		Help:      "Cells allocated for the last pairwise distance matrix",
	})

	ReachAreaSquareDegrees = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reachmap",
		Subsystem: "reach",
		Name:      "area_square_degrees",
		Help:      "Planar area of the last reach area",
	})

	ReachAreaPolygons = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reachmap",
		Subsystem: "reach",
		Name:      "polygons",
		Help:      "Number of disjoint polygons in the last reach area",
	})

	ArtifactsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reachmap",
		Subsystem: "render",
		Name:      "artifacts_total",
		Help:      "Total map and chart files written",
	}, []string{"kind"})

	ArtifactBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reachmap",
		Subsystem: "render",
		Name:      "artifact_size_bytes",
		Help:      "Size of written map and chart files",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"kind"})
)

// ObserveOperation records the duration of an operation and counts it as
// failed when err is non-nil. Use with defer:
//
//	defer metrics.ObserveOperation("cluster", time.Now(), &err)
func ObserveOperation(operation string, start time.Time, err *error) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil && *err != nil {
		OperationErrors.WithLabelValues(operation).Inc()
	}
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
