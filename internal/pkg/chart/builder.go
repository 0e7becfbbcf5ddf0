package chart

import (
	"log/slog"

	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/model"
	"github.com/fredbi/flathubviz/internal/pkg/table"
)

// Builder constructs charts from an explored catalog view.
type Builder struct {
	cfg  *config.Config
	view *model.View
	l    *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and a pre-calculated [model.View].
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, view *model.View) *Builder {
	return &Builder{
		cfg:  cfg,
		view: view,
		l:    slog.Default().With(slog.String("module", "chart")),
	}
}

// BuildPage creates a page with a chart for every plot of the view.
func (b *Builder) BuildPage() *Page {
	page := NewPage(b.view.Title)
	subtitle := b.Subtitle()

	for _, plot := range b.view.Plots {
		if plot.IsEmpty() {
			b.l.Warn("empty chart skipped", slog.String("plot_id", plot.ID))

			continue
		}

		chart := NewChart(plot,
			WithSubtitle(subtitle),
			WithTheme(b.cfg.Render.Theme),
			WithPrecision(b.cfg.Render.Precision),
		)

		page.AddChart(chart)
		b.l.Info("added chart", slog.String("plot_id", plot.ID), slog.String("kind", plot.Kind.String()))
	}

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}

// Subtitle describes the catalog and the number of rows matching the filters.
func (b *Builder) Subtitle() string {
	var name string
	if b.view.Catalog != nil {
		name = b.view.Catalog.Name
	}

	if b.view.Matching < 0 {
		return name
	}

	rows := "rows"
	if b.view.Matching == 1 {
		rows = "row"
	}

	return name + ": " + table.Commas(b.view.Matching) + " matching " + rows
}
