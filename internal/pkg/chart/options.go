package chart

import "github.com/go-echarts/go-echarts/v2/types"

// Theme constants from go-echarts.
const (
	ThemeRoma     = types.ThemeRoma
	ThemeWesteros = types.ThemeWesteros
)

// DefaultPrecision is the number of significant digits of bucket labels.
const DefaultPrecision = 4

// Option configures a [Chart].
type Option func(*options)

type options struct {
	Subtitle   string
	Theme      string
	Precision  int
	SymbolSize int
}

// WithSubtitle sets the chart subtitle (typically the catalog and filter info).
func WithSubtitle(subtitle string) Option {
	return func(c *options) {
		c.Subtitle = subtitle
	}
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		if theme == "" {
			return
		}

		c.Theme = theme
	}
}

// WithPrecision sets the number of significant digits of bucket labels.
func WithPrecision(precision int) Option {
	return func(c *options) {
		if precision < 1 {
			return
		}

		c.Precision = precision
	}
}

// WithSymbolSize sets the size of the points of scatter plots.
func WithSymbolSize(size int) Option {
	return func(c *options) {
		if size < 1 {
			return
		}

		c.SymbolSize = size
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:      ThemeRoma,
		Precision:  DefaultPrecision,
		SymbolSize: defaultSymbolSize,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
