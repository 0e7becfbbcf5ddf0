package explorer

import (
	"context"
	"errors"

	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// ErrUnsupported is returned by a [Source] that cannot serve a kind of query.
var ErrUnsupported = errors.New("query not supported by this source")

// Source serves catalog metadata and data. [*flathub.Client] is the online source.
type Source interface {
	Catalog(ctx context.Context, catalog string) (*flathub.Catalog, error)
	Data(ctx context.Context, catalog string, req flathub.DataRequest) ([]flathub.Row, error)
	Count(ctx context.Context, catalog string, req flathub.CountRequest) (int64, error)
	Histogram(ctx context.Context, catalog string, req flathub.HistogramRequest) (*flathub.Histogram, error)
}

var _ Source = &flathub.Client{}

// FileSource is an offline [Source] serving a catalog and rows loaded from local files.
//
// Filters, sort and sampling are not applied: rows are served as loaded.
// Histograms are not supported.
type FileSource struct {
	catalog *flathub.Catalog
	rows    []flathub.Row
}

// NewFileSource builds a [FileSource] from a parsed catalog and rows.
func NewFileSource(catalog *flathub.Catalog, rows []flathub.Row) *FileSource {
	return &FileSource{
		catalog: catalog,
		rows:    rows,
	}
}

// Catalog returns the loaded catalog, whatever the requested name.
func (s *FileSource) Catalog(_ context.Context, _ string) (*flathub.Catalog, error) {
	if s.catalog == nil {
		return nil, errors.New("no catalog loaded")
	}

	return s.catalog, nil
}

// Data returns a page of the loaded rows, restricted to the requested fields.
func (s *FileSource) Data(ctx context.Context, _ string, req flathub.DataRequest) ([]flathub.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := min(max(req.Offset, 0), len(s.rows))
	end := len(s.rows)
	if req.Count > 0 {
		end = min(start+req.Count, end)
	}

	page := s.rows[start:end]
	if len(req.Fields) == 0 {
		return page, nil
	}

	projected := make([]flathub.Row, 0, len(page))
	for _, row := range page {
		out := make(flathub.Row, len(req.Fields))
		for _, field := range req.Fields {
			if value, ok := row[field]; ok {
				out[field] = value
			}
		}

		projected = append(projected, out)
	}

	return projected, nil
}

// Count returns the number of loaded rows.
func (s *FileSource) Count(ctx context.Context, _ string, _ flathub.CountRequest) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return int64(len(s.rows)), nil
}

// Histogram is not supported offline.
func (s *FileSource) Histogram(_ context.Context, _ string, _ flathub.HistogramRequest) (*flathub.Histogram, error) {
	return nil, ErrUnsupported
}
