package telemetry

// Span names used for instrumentation.
const (
	SpanLoadStops      = "input.load_stops"
	SpanLoadPopulation = "input.load_population"
	SpanBuildReach     = "reach.build"
	SpanCluster        = "cluster.run"
	SpanRender         = "render.write"
	SpanAnalysis       = "analysis.run"
)

// Attribute keys attached to spans.
const (
	AttrPoints     = "reachmap.points"
	AttrStops      = "reachmap.stops"
	AttrClusters   = "reachmap.clusters"
	AttrArtifact   = "reachmap.artifact"
	AttrOutputPath = "reachmap.output_path"
)
