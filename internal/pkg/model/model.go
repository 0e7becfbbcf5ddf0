package model

import (
	"github.com/fredbi/flathubviz/internal/pkg/columns"
	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// View is a snapshot of a catalog exploration, ready to be rendered on a single page.
//
// A [View] exposes a data table and several plots, each to be rendered in a separate chart on the page.
type View struct {
	Name    string
	Title   string
	Catalog *flathub.Catalog
	Tree    *fields.Tree

	// Requested lists the leaf fields requested for display, in display order.
	Requested []string

	// Columns is the column tree of the data table.
	Columns []columns.Column

	// Rows is the current page of data rows.
	Rows []flathub.Row

	// Matching is the number of rows matching the filters, or -1 when unknown.
	Matching int64

	Plots []Plot
}

// Leaves returns the leaf columns of the data table.
func (v View) Leaves() []*columns.Leaf {
	return columns.Leaves(v.Columns)
}

// Plot holds the data of one chart.
//
// Histogram-based plots (histogram, heatmap, boxplot) carry histogram buckets.
// Scatter plots carry data points instead.
type Plot struct {
	ID       string
	Title    string
	Kind     config.PlotKind
	Axes     []Axis
	LogCount bool

	Histogram *flathub.Histogram
	Points    []Point
}

// Labels returns the axis titles of the plot.
func (p Plot) Labels() []string {
	labels := make([]string, 0, len(p.Axes))

	for _, axis := range p.Axes {
		labels = append(labels, axis.Label())
	}

	return labels
}

// IsEmpty reports whether the plot has no data to display.
func (p Plot) IsEmpty() bool {
	if p.Kind.UsesHistogram() {
		return p.Histogram == nil || len(p.Histogram.Buckets) == 0
	}

	return len(p.Points) == 0
}

// Axis describes a field mapped to a plot axis.
type Axis struct {
	Field string
	Title string
	Units string
	Log   bool

	// Size is the width of a histogram bucket along this axis (zero for scatter plots).
	Size float64
}

// Label returns the axis title, with units if any.
func (a Axis) Label() string {
	title := a.Title
	if title == "" {
		title = a.Field
	}

	if a.Units == "" {
		return title
	}

	return title + " [" + a.Units + "]"
}

// Point is a single data point of a scatter plot, with one coordinate per axis.
type Point []float64
