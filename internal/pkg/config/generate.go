package config

import (
	"fmt"

	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// Generate builds a starter [Config] from the metadata of a catalog.
//
// It requests the leaf fields flagged for default display, with a histogram of the first
// numeric one and a scatter plot of the first two numeric ones.
func Generate(catalog *flathub.Catalog) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		// embedded config must always parse
		panic(fmt.Sprintf("loading embedded defaults: %v", err))
	}

	if catalog == nil {
		return nil, fmt.Errorf("generating config: %w: nil catalog", fields.ErrInvalidTree)
	}

	tree, err := fields.New(catalog)
	if err != nil {
		return nil, fmt.Errorf("generating config for catalog %q: %w", catalog.Name, err)
	}

	cfg := &Config{
		Name:    titleOrName(catalog.CatalogMeta),
		Catalog: catalog.Name,
		Count:   defaults.Count,
		API:     defaults.API,
		Render:  defaults.Render,
	}

	var numeric []string
	for _, leaf := range tree.Leaves() {
		field := leaf.Field()
		if !field.Disp {
			continue
		}

		cfg.Fields = append(cfg.Fields, field.Name)

		if kind, ok := leaf.Type(); ok && kind.IsNumeric() {
			numeric = append(numeric, field.Name)
		}
	}

	if len(numeric) > 0 {
		cfg.Plots = append(cfg.Plots, Plot{
			ID:    "histogram-" + numeric[0],
			Title: "Histogram of " + numeric[0],
			Kind:  PlotHistogram,
			X:     numeric[0],
		})
	}

	if len(numeric) > 1 {
		cfg.Plots = append(cfg.Plots, Plot{
			ID:    "scatter-" + numeric[0] + "-" + numeric[1],
			Title: titleize(numeric[1]) + " vs " + titleize(numeric[0]),
			Kind:  PlotScatter,
			X:     numeric[0],
			Y:     numeric[1],
		})
	}

	return cfg, nil
}

func titleOrName(meta flathub.CatalogMeta) string {
	if meta.Title != "" {
		return meta.Title
	}

	return titleize(meta.Name)
}
