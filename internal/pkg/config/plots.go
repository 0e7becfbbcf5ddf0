package config

// PlotKind identifies the type of a plot (e.g. "histogram", "heatmap").
type PlotKind string

// Supported plot kinds.
const (
	PlotHistogram PlotKind = "histogram"
	PlotHeatmap   PlotKind = "heatmap"
	PlotBoxplot   PlotKind = "boxplot"
	PlotScatter   PlotKind = "scatter"
	PlotScatter3D PlotKind = "scatter3d"
)

// Default bucket and sample sizes per plot kind.
const (
	DefaultHistogramSize = 100
	DefaultHeatmapSize   = 20
	DefaultBoxplotSize   = 60
	DefaultScatterCount  = 2000

	// DefaultScatterSample is the sampling fraction used for scatter plots.
	DefaultScatterSample = 0.9999
)

// String returns the plot kind as a plain string.
func (k PlotKind) String() string {
	return string(k)
}

// IsValid reports whether the plot kind is one of the known kinds.
func (k PlotKind) IsValid() bool {
	switch k {
	case PlotHistogram, PlotHeatmap, PlotBoxplot, PlotScatter, PlotScatter3D:
		return true
	default:
		return false
	}
}

// Axes returns the number of field axes a plot of this kind requires.
func (k PlotKind) Axes() int {
	switch k {
	case PlotHistogram:
		return 1
	case PlotHeatmap, PlotBoxplot, PlotScatter:
		return 2
	case PlotScatter3D:
		return 3
	default:
		return 0
	}
}

// UsesHistogram reports whether the plot is computed from histogram buckets, rather than from data rows.
func (k PlotKind) UsesHistogram() bool {
	switch k {
	case PlotHistogram, PlotHeatmap, PlotBoxplot:
		return true
	default:
		return false
	}
}

// AllPlotKinds returns all known plot kinds.
func AllPlotKinds() []PlotKind {
	return []PlotKind{
		PlotHistogram,
		PlotHeatmap,
		PlotBoxplot,
		PlotScatter,
		PlotScatter3D,
	}
}

// Plot defines a chart computed from the selected catalog.
//
// Log flags left unset are decided from the field statistics.
type Plot struct {
	ID       string
	Title    string
	Kind     PlotKind
	X        string
	Y        string
	Z        string
	Size     int
	Count    int
	LogX     *bool
	LogY     *bool
	LogZ     *bool
	LogCount bool
}

// Fields returns the field names of the axes used by the plot, in axis order.
func (p Plot) Fields() []string {
	all := []string{p.X, p.Y, p.Z}
	n := p.Kind.Axes()

	return all[:n]
}

// BucketSize returns the number of histogram buckets per axis, defaulting by kind.
func (p Plot) BucketSize() int {
	if p.Size > 0 {
		return p.Size
	}

	switch p.Kind {
	case PlotHeatmap:
		return DefaultHeatmapSize
	case PlotBoxplot:
		return DefaultBoxplotSize
	default:
		return DefaultHistogramSize
	}
}

// SampleCount returns the number of rows fetched for scatter plots.
func (p Plot) SampleCount() int {
	if p.Count > 0 {
		return p.Count
	}

	return DefaultScatterCount
}

// LogRequests returns the requested log mode of each axis, nil when not set.
func (p Plot) LogRequests() []*bool {
	all := []*bool{p.LogX, p.LogY, p.LogZ}

	return all[:p.Kind.Axes()]
}
