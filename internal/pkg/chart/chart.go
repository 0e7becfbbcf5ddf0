package chart

import (
	"cmp"
	"math"
	"slices"

	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/model"
	"github.com/fredbi/flathubviz/internal/pkg/table"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize   = 12
	defaultSymbolSize = 4
	xAxisLabelAngle   = 30
	axisNameGap       = 32

	countLabel    = "count"
	logCountLabel = "log10(count)"
)

var heatColors = []string{"#313695", "#4575b4", "#abd9e9", "#fee090", "#f46d43", "#a50026"}

// Chart represents a plot of catalog data.
type Chart struct {
	options

	Plot model.Plot
}

// NewChart creates a new chart for the data of a plot.
func NewChart(plot model.Plot, opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
		Plot:    plot,
	}
}

// Build creates the ECharts chart matching the kind of plot.
//
// It returns nil for an unknown kind of plot.
func (c *Chart) Build() components.Charter {
	switch c.Plot.Kind {
	case config.PlotHistogram:
		return c.histogram()
	case config.PlotHeatmap:
		return c.heatmap()
	case config.PlotBoxplot:
		return c.boxplot()
	case config.PlotScatter:
		return c.scatter()
	case config.PlotScatter3D:
		return c.scatter3D()
	default:
		return nil
	}
}

func (c *Chart) histogram() *charts.Bar {
	buckets := sortedBuckets(c.Plot.Histogram)
	labels := make([]string, 0, len(buckets))
	data := make([]echartsopts.BarData, 0, len(buckets))

	for _, bucket := range buckets {
		label := c.label(bucket, 0)
		labels = append(labels, label)
		data = append(data, echartsopts.BarData{
			Name:  label,
			Value: bucket.Count,
		})
	}

	yAxis := echartsopts.YAxis{
		Name:  countLabel,
		Type:  "value",
		Scale: echartsopts.Bool(true),
	}
	if c.Plot.LogCount {
		yAxis.Type = "log"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(c.globalOptions("axis"),
		charts.WithXAxisOpts(c.categoryAxis(0)),
		charts.WithYAxisOpts(yAxis),
	)...)
	bar.SetXAxis(labels)
	bar.AddSeries(countLabel, data)

	return bar
}

func (c *Chart) heatmap() *charts.HeatMap {
	buckets := sortedBuckets(c.Plot.Histogram)
	xs, xLabels := c.distinct(buckets, 0)
	ys, yLabels := c.distinct(buckets, 1)

	data := make([]echartsopts.HeatMapData, 0, len(buckets))
	var highest float64

	for _, bucket := range buckets {
		x, okX := keyAt(bucket, 0)
		y, okY := keyAt(bucket, 1)
		if !okX || !okY {
			continue
		}

		value := float64(bucket.Count)
		if c.Plot.LogCount {
			value = math.Log10(max(value, 1))
		}
		highest = max(highest, value)

		data = append(data, echartsopts.HeatMapData{
			Value: []any{xs[x], ys[y], value},
		})
	}

	legend := countLabel
	if c.Plot.LogCount {
		legend = logCountLabel
	}

	yAxis := echartsopts.YAxis{
		Name: c.axisName(1),
		Type: "category",
		Data: yLabels,
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(append(c.globalOptions("item"),
		charts.WithXAxisOpts(c.categoryAxis(0)),
		charts.WithYAxisOpts(yAxis),
		charts.WithVisualMapOpts(echartsopts.VisualMap{
			Calculable: echartsopts.Bool(true),
			Min:        0,
			Max:        float32(highest),
			Text:       []string{legend},
			InRange: &echartsopts.VisualMapInRange{
				Color: heatColors,
			},
		}),
	)...)
	heatmap.SetXAxis(xLabels)
	heatmap.AddSeries(legend, data)

	return heatmap
}

func (c *Chart) boxplot() *charts.BoxPlot {
	const quartiles = 5 // min, first quartile, median, third quartile, max

	buckets := sortedBuckets(c.Plot.Histogram)
	labels := make([]string, 0, len(buckets))
	data := make([]echartsopts.BoxPlotData, 0, len(buckets))

	for _, bucket := range buckets {
		if len(bucket.Quartiles) != quartiles {
			continue
		}

		label := c.label(bucket, 0)
		labels = append(labels, label)
		data = append(data, echartsopts.BoxPlotData{
			Name:  label,
			Value: bucket.Quartiles,
		})
	}

	boxplot := charts.NewBoxPlot()
	boxplot.SetGlobalOptions(append(c.globalOptions("item"),
		charts.WithXAxisOpts(c.categoryAxis(0)),
		charts.WithYAxisOpts(echartsopts.YAxis{
			Name:  c.axisName(1),
			Type:  axisType(c.axis(1).Log),
			Scale: echartsopts.Bool(true),
		}),
	)...)
	boxplot.SetXAxis(labels)
	boxplot.AddSeries(c.axisName(1), data)

	return boxplot
}

func (c *Chart) scatter() *charts.Scatter {
	data := make([]echartsopts.ScatterData, 0, len(c.Plot.Points))
	for _, point := range c.Plot.Points {
		data = append(data, echartsopts.ScatterData{
			Value:      []float64(point),
			SymbolSize: c.SymbolSize,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(c.globalOptions("item"),
		charts.WithXAxisOpts(echartsopts.XAxis{
			Name:         c.axisName(0),
			Type:         axisType(c.axis(0).Log),
			NameLocation: "center",
			NameGap:      axisNameGap,
			Scale:        echartsopts.Bool(true),
		}),
		charts.WithYAxisOpts(echartsopts.YAxis{
			Name:  c.axisName(1),
			Type:  axisType(c.axis(1).Log),
			Scale: echartsopts.Bool(true),
		}),
	)...)
	scatter.AddSeries(c.Plot.Title, data)

	return scatter
}

func (c *Chart) scatter3D() *charts.Scatter3D {
	data := make([]echartsopts.Chart3DData, 0, len(c.Plot.Points))
	for _, point := range c.Plot.Points {
		value := make([]any, 0, len(point))
		for _, coordinate := range point {
			value = append(value, coordinate)
		}

		data = append(data, echartsopts.Chart3DData{Value: value})
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(append(c.globalOptions("item"),
		charts.WithXAxis3DOpts(echartsopts.XAxis3D{Name: c.axisName(0), Type: axisType(c.axis(0).Log)}),
		charts.WithYAxis3DOpts(echartsopts.YAxis3D{Name: c.axisName(1), Type: axisType(c.axis(1).Log)}),
		charts.WithZAxis3DOpts(echartsopts.ZAxis3D{Name: c.axisName(2), Type: axisType(c.axis(2).Log)}),
	)...)
	scatter.AddSeries(c.Plot.Title, data)

	return scatter
}

func (c *Chart) globalOptions(trigger string) []charts.GlobalOpts {
	titleOpts := echartsopts.Title{
		Title: c.Plot.Title,
	}
	if c.Subtitle != "" {
		titleOpts.Subtitle = c.Subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			FontStyle: "italic",
			FontSize:  defaultFontSize,
		}
	}

	toolboxOpts := echartsopts.Toolbox{
		Left: "right",
		Feature: &echartsopts.ToolBoxFeature{
			SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
				Title: "Save as image",
			},
		},
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(echartsopts.Initialization{Theme: c.Theme}),
		charts.WithToolboxOpts(toolboxOpts),
		charts.WithTitleOpts(titleOpts),
		charts.WithGridOpts(echartsopts.Grid{
			Bottom: "100",
			Top:    "100",
		}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: trigger,
		}),
	}
}

// categoryAxis is the X axis of bucketed plots, labelled with the lower bound of each bucket.
func (c *Chart) categoryAxis(index int) echartsopts.XAxis {
	return echartsopts.XAxis{
		Name:         c.axisName(index),
		Type:         "category",
		Position:     "bottom",
		NameLocation: "center",
		NameGap:      axisNameGap * 2,
		AxisTick: &echartsopts.AxisTick{
			AlignWithLabel: echartsopts.Bool(true),
		},
		AxisLabel: &echartsopts.AxisLabel{
			Rotate:       xAxisLabelAngle,
			ShowMinLabel: echartsopts.Bool(true),
			ShowMaxLabel: echartsopts.Bool(true),
			HideOverlap:  echartsopts.Bool(true),
		},
	}
}

func (c *Chart) axis(index int) model.Axis {
	if index >= len(c.Plot.Axes) {
		return model.Axis{}
	}

	return c.Plot.Axes[index]
}

func (c *Chart) axisName(index int) string {
	axis := c.axis(index)
	name := axis.Label()
	if axis.Log && c.Plot.Kind.UsesHistogram() {
		name += " (log)"
	}

	return name
}

func (c *Chart) label(bucket flathub.Bucket, index int) string {
	v, ok := keyAt(bucket, index)
	if !ok {
		return ""
	}

	return table.Concise(v, c.Precision)
}

// distinct returns the sorted distinct keys of the buckets along one axis, indexed by their rank.
func (c *Chart) distinct(buckets []flathub.Bucket, index int) (map[float64]int, []string) {
	var keys []float64
	for _, bucket := range buckets {
		if v, ok := keyAt(bucket, index); ok {
			keys = append(keys, v)
		}
	}

	slices.Sort(keys)
	keys = slices.Compact(keys)

	ranks := make(map[float64]int, len(keys))
	labels := make([]string, 0, len(keys))
	for i, key := range keys {
		ranks[key] = i
		labels = append(labels, table.Concise(key, c.Precision))
	}

	return ranks, labels
}

func axisType(isLog bool) string {
	if isLog {
		return "log"
	}

	return "value"
}

func keyAt(bucket flathub.Bucket, index int) (float64, bool) {
	if index >= len(bucket.Key) {
		return 0, false
	}

	return fields.ToFloat(bucket.Key[index])
}

// sortedBuckets orders buckets along their keys, first axis first.
func sortedBuckets(histogram *flathub.Histogram) []flathub.Bucket {
	if histogram == nil {
		return nil
	}

	buckets := slices.Clone(histogram.Buckets)
	slices.SortStableFunc(buckets, func(a, b flathub.Bucket) int {
		for i := range min(len(a.Key), len(b.Key)) {
			x, _ := fields.ToFloat(a.Key[i])
			y, _ := fields.ToFloat(b.Key[i])
			if order := cmp.Compare(x, y); order != 0 {
				return order
			}
		}

		return cmp.Compare(len(a.Key), len(b.Key))
	})

	return buckets
}
