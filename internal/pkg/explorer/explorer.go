// Package explorer queries a catalog and assembles everything needed to render a page:
// the column tree of the data table, a page of rows and the data of the configured plots.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fredbi/flathubviz/internal/pkg/columns"
	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/model"
)

// ErrStrict is returned in strict mode, when an irregularity would otherwise be skipped.
var ErrStrict = errors.New("strict requirement not met")

// Explorer assembles a [model.View] from a configuration and a data [Source].
type Explorer struct {
	options

	cfg     *config.Config
	source  Source
	builder *columns.Builder
	l       *slog.Logger
}

// New [Explorer] ready to query a [Source].
func New(cfg *config.Config, source Source, opts ...Option) *Explorer {
	return &Explorer{
		options: optionsWithDefaults(opts),
		cfg:     cfg,
		source:  source,
		builder: columns.New(),
		l:       slog.Default().With(slog.String("module", "explorer")),
	}
}

// Explore fetches the catalog metadata, a page of rows and the plot data, then assembles a [model.View].
//
// When no field is configured, the fields flagged for default display are requested.
// When no field is flagged either, the fields found in the first row of data are displayed.
func (e *Explorer) Explore(ctx context.Context) (*model.View, error) {
	catalog, err := e.source.Catalog(ctx, e.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog %q: %w", e.cfg.Catalog, err)
	}

	tree, err := fields.New(catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", catalog.Name, err)
	}

	requested, err := e.requested(tree)
	if err != nil {
		return nil, err
	}

	rows, err := e.source.Data(ctx, catalog.Name, flathub.DataRequest{
		Fields:   requested,
		Filters:  e.cfg.FilterSet(),
		Sort:     e.cfg.SortOrder(),
		Count:    e.cfg.Count,
		Offset:   e.cfg.Offset,
		Sampling: e.cfg.Sampling(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching data from catalog %q: %w", catalog.Name, err)
	}

	var sample flathub.Row
	if len(rows) > 0 {
		sample = rows[0]
	}

	if len(requested) == 0 && len(e.cfg.Fields) == 0 {
		requested = fromSample(tree, sample)
		e.l.Info("no field selected: using the fields of the data", slog.Int("fields", len(requested)))
	}

	cols, err := e.builder.Build(tree, requested, sample)
	if err != nil {
		return nil, fmt.Errorf("building columns for catalog %q: %w", catalog.Name, err)
	}

	view := &model.View{
		Name:      e.cfg.Name,
		Title:     e.title(catalog),
		Catalog:   catalog,
		Tree:      tree,
		Requested: requested,
		Columns:   cols,
		Rows:      rows,
		Matching:  e.count(ctx, catalog.Name),
		Plots:     make([]model.Plot, 0, len(e.cfg.Plots)),
	}

	for _, plotConfig := range e.cfg.Plots {
		plot, ok, err := e.plot(ctx, tree, catalog.Name, plotConfig)
		if err != nil {
			return nil, err
		}

		if !ok {
			if e.isStrict {
				err := fmt.Errorf("%w: plot %q could not be computed. Stopping here", ErrStrict, plotConfig.ID)
				e.l.Error("strict requirement not met", slog.String("error", err.Error()))

				return nil, err
			}

			continue
		}

		view.Plots = append(view.Plots, plot)
	}

	e.l.Info("explored catalog",
		slog.String("catalog", catalog.Name),
		slog.Int("columns", len(view.Leaves())),
		slog.Int("rows", len(rows)),
		slog.Int64("matching", view.Matching),
		slog.Int("plots", len(view.Plots)),
	)

	return view, nil
}

func (e *Explorer) requested(tree *fields.Tree) ([]string, error) {
	if len(e.cfg.Fields) == 0 {
		var requested []string
		for _, leaf := range tree.Leaves() {
			if leaf.Field().Disp {
				requested = append(requested, leaf.Name())
			}
		}

		return requested, nil
	}

	requested := make([]string, 0, len(e.cfg.Fields))
	for _, name := range e.cfg.Fields {
		node, ok := tree.Find(name)
		if !ok || !node.IsLeaf() {
			e.l.Warn("requested field not found in catalog", slog.String("field", name))
			if e.isStrict {
				err := fmt.Errorf("%w: field %q not found in catalog. Stopping here", ErrStrict, name)
				e.l.Error("strict requirement not met", slog.String("error", err.Error()))

				return nil, err
			}

			continue
		}

		requested = append(requested, name)
	}

	return requested, nil
}

// fromSample lists the leaves of the tree present in a data row, in tree order.
func fromSample(tree *fields.Tree, sample flathub.Row) []string {
	var requested []string
	for _, leaf := range tree.Leaves() {
		if _, ok := sample[leaf.Name()]; ok {
			requested = append(requested, leaf.Name())
		}
	}

	return requested
}

func (e *Explorer) count(ctx context.Context, catalog string) int64 {
	count, err := e.source.Count(ctx, catalog, flathub.CountRequest{
		Filters:  e.cfg.FilterSet(),
		Sampling: e.cfg.Sampling(),
	})
	if err != nil {
		e.l.Warn("could not count matching rows", slog.String("error", err.Error()))

		return -1
	}

	return count
}

func (e *Explorer) title(catalog *flathub.Catalog) string {
	if e.cfg.Render.Title != "" {
		return e.cfg.Render.Title
	}

	if catalog.Title != "" {
		return catalog.Title
	}

	return catalog.Name
}
