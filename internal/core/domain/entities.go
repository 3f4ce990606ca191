package domain

import (
	"time"

	"github.com/twpayne/go-geom"
)

// NoiseLabel is the cluster label given to points that belong to no cluster.
const NoiseLabel = -1

// SRID of every geometry produced by this module.
const SRID = 4326

// Stop represents a transit stop or station as read from a stops table.
type Stop struct {
	StopID   string   `json:"stop_id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// PopulationPoint is a weighted population sample (e.g. a census grid cell centroid).
type PopulationPoint struct {
	Location   GeoPoint `json:"location"`
	Population float64  `json:"population"`
}

// ClusteredPoint pairs a population point with the label assigned by the clusterer.
type ClusteredPoint struct {
	PopulationPoint
	Cluster int `json:"cluster"`
}

// IsNoise reports whether the point was left unclustered.
func (p ClusteredPoint) IsNoise() bool {
	return p.Cluster == NoiseLabel
}

// ReachArea is the union of the buffer disks drawn around every stop.
// The geometry is in EPSG:4326 and has no polygons when no stops were given.
type ReachArea struct {
	Geometry     *geom.MultiPolygon `json:"-"`
	BufferRadius float64            `json:"buffer_radius"`
	StopCount    int                `json:"stop_count"`
}

// IsEmpty reports whether the reach area covers nothing.
func (r *ReachArea) IsEmpty() bool {
	return r == nil || r.Geometry == nil || r.Geometry.NumPolygons() == 0
}

// Area returns the planar area in square degrees.
func (r *ReachArea) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Geometry.Area()
}

// ClusterSummary aggregates the points sharing one cluster label.
type ClusterSummary struct {
	Label      int      `json:"label"`
	Points     int      `json:"points"`
	Population float64  `json:"population"`
	Centroid   GeoPoint `json:"centroid"`

	// RadiusMeters is the distance from the centroid to the farthest member.
	RadiusMeters float64 `json:"radius_meters"`
}

// ArtifactKind identifies which renderer produced a file.
type ArtifactKind string

const (
	ArtifactPopulationStops ArtifactKind = "population_stops"
	ArtifactPopulationReach ArtifactKind = "population_reach"
	ArtifactClusters        ArtifactKind = "clusters"
	ArtifactClusterSummary  ArtifactKind = "cluster_summary"
)

// MapArtifact describes a rendered file on disk.
type MapArtifact struct {
	Kind    ArtifactKind `json:"kind"`
	Path    string       `json:"path"`
	Center  GeoPoint     `json:"center"`
	Bounds  Bounds       `json:"bounds"`
	Zoom    int          `json:"zoom"`
	Markers int          `json:"markers"`
	Circles int          `json:"circles"`
	Shapes  int          `json:"shapes"`
	Bytes   int64        `json:"bytes"`
}

// AnalysisReport is the outcome of one end-to-end analysis run.
type AnalysisReport struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
	Stops       int              `json:"stops"`
	Population  int              `json:"population"`
	Clusters    int              `json:"clusters"`
	NoisePoints int              `json:"noise_points"`
	ReachArea   float64          `json:"reach_area_sq_deg"`
	Summaries   []ClusterSummary `json:"summaries"`
	Artifacts   []MapArtifact    `json:"artifacts"`
}
