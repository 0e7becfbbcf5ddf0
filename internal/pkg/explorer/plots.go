package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/model"
)

// plot computes the data of a configured plot.
//
// It returns false when the plot is skipped: unknown or non-numeric field, log scale requested
// on values crossing zero, query unsupported by the source, or no data.
func (e *Explorer) plot(ctx context.Context, tree *fields.Tree, catalog string, p config.Plot) (model.Plot, bool, error) {
	l := e.l.With(slog.String("plot", p.ID))

	axes, ok := e.axes(l, tree, p)
	if !ok {
		return model.Plot{}, false, nil
	}

	plot := model.Plot{
		ID:       p.ID,
		Title:    p.Title,
		Kind:     p.Kind,
		Axes:     axes,
		LogCount: p.LogCount,
	}

	if p.Kind.UsesHistogram() {
		histogram, err := e.source.Histogram(ctx, catalog, e.histogramRequest(p, axes))
		if errors.Is(err, ErrUnsupported) {
			l.Warn("histogram not available from this source: plot skipped")

			return model.Plot{}, false, nil
		}
		if err != nil {
			return model.Plot{}, false, fmt.Errorf("computing plot %q: %w", p.ID, err)
		}

		plot.Histogram = histogram
		for i := range plot.Axes {
			if i < len(histogram.Sizes) {
				plot.Axes[i].Size = histogram.Sizes[i]
			}
		}
	} else {
		points, err := e.points(ctx, catalog, p, axes)
		if err != nil {
			return model.Plot{}, false, fmt.Errorf("computing plot %q: %w", p.ID, err)
		}

		plot.Points = points
	}

	if plot.IsEmpty() {
		l.Warn("no data for plot: skipped")

		return model.Plot{}, false, nil
	}

	return plot, true, nil
}

func (e *Explorer) axes(l *slog.Logger, tree *fields.Tree, p config.Plot) ([]model.Axis, bool) {
	names := p.Fields()
	logs := p.LogRequests()
	axes := make([]model.Axis, 0, len(names))

	for i, name := range names {
		node, ok := tree.Find(name)
		if !ok || !node.IsLeaf() {
			l.Warn("plot field not found in catalog: plot skipped", slog.String("field", name))

			return nil, false
		}

		if kind, ok := node.Type(); !ok || !kind.IsNumeric() {
			l.Warn("plot field is not numeric: plot skipped", slog.String("field", name), slog.String("type", kind.String()))

			return nil, false
		}

		allowed := e.logAllowed(node)
		useLog := allowed && e.logSuggested(node)
		if logs[i] != nil {
			if *logs[i] && !allowed {
				l.Warn("log scale requested but values cross zero: plot skipped", slog.String("field", name))

				return nil, false
			}

			useLog = *logs[i]
		}

		field := node.Field()
		axes = append(axes, model.Axis{
			Field: name,
			Title: node.Title(),
			Units: field.Units,
			Log:   useLog,
		})
	}

	return axes, true
}

// bounds returns the current range of values of a field: filter bounds when set, statistics otherwise.
func (e *Explorer) bounds(node *fields.Node) (lower, upper float64, ok bool) {
	lower, upper = math.NaN(), math.NaN()

	if stats := node.Field().Stats; stats != nil {
		if stats.Min != nil {
			lower = *stats.Min
		}
		if stats.Max != nil {
			upper = *stats.Max
		}
	}

	if filter, isRange := e.cfg.FilterSet()[node.Name()].(flathub.Range); isRange {
		if v, isNumber := fields.ToFloat(filter.Gte); isNumber {
			lower = v
		}
		if v, isNumber := fields.ToFloat(filter.Lte); isNumber {
			upper = v
		}
	}

	if math.IsNaN(lower) || math.IsNaN(upper) {
		return 0, 0, false
	}

	return lower, upper, true
}

func (e *Explorer) logAllowed(node *fields.Node) bool {
	lower, upper, ok := e.bounds(node)

	return ok && lower > 0 && upper > 0
}

func (e *Explorer) logSuggested(node *fields.Node) bool {
	if !node.HasNumericStats() {
		return false
	}

	stats := node.Field().Stats

	return fields.ShouldUseLogScale(*stats.Min, *stats.Max, *stats.Avg)
}

func (e *Explorer) histogramRequest(p config.Plot, axes []model.Axis) flathub.HistogramRequest {
	req := flathub.HistogramRequest{
		Filters:  e.cfg.FilterSet(),
		Sampling: e.cfg.Sampling(),
	}

	bucketed := axes
	if p.Kind == config.PlotBoxplot {
		// the second axis holds the quartiles of each bucket of the first one
		bucketed = axes[:1]
		req.Quartiles = axes[1].Field
	}

	for _, axis := range bucketed {
		req.Fields = append(req.Fields, flathub.HistogramField{
			Field: axis.Field,
			Size:  p.BucketSize(),
			Log:   axis.Log,
		})
	}

	return req
}

func (e *Explorer) points(ctx context.Context, catalog string, p config.Plot, axes []model.Axis) ([]model.Point, error) {
	sample := config.DefaultScatterSample
	if e.cfg.Sample > 0 && e.cfg.Sample < sample {
		sample = e.cfg.Sample
	}

	rows, err := e.source.Data(ctx, catalog, flathub.DataRequest{
		Fields:  p.Fields(),
		Filters: e.cfg.FilterSet(),
		Count:   p.SampleCount(),
		Sampling: flathub.Sampling{
			Sample: sample,
			Seed:   e.cfg.Seed,
		},
	})
	if err != nil {
		return nil, err
	}

	points := make([]model.Point, 0, len(rows))

NEXT_ROW:
	for _, row := range rows {
		point := make(model.Point, 0, len(axes))

		for _, axis := range axes {
			v, ok := fields.ToFloat(row[axis.Field])
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) || (axis.Log && v <= 0) {
				continue NEXT_ROW
			}

			point = append(point, v)
		}

		points = append(points, point)
	}

	if dropped := len(rows) - len(points); dropped > 0 {
		e.l.Debug("rows without plottable values", slog.String("plot", p.ID), slog.Int("dropped", dropped))
	}

	return points, nil
}
