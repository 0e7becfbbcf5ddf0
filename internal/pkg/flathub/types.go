// Package flathub holds the wire types of the Flathub catalog API and a client to query it.
package flathub

import (
	"encoding/json"
	"maps"
)

// CatalogMeta is the high-level description of a dataset catalog, as listed by the API root.
type CatalogMeta struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Synopsis string `json:"synopsis,omitempty"`
	Descr    string `json:"descr,omitempty"`
}

// Catalog is the full metadata of a catalog, including its hierarchical field list.
type Catalog struct {
	CatalogMeta

	Count  int64    `json:"count,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Fields []*Field `json:"fields"`
}

// Field describes a single field of a catalog, or a group of fields when Sub is not empty.
type Field struct {
	Name       string      `json:"name,omitempty"`
	Title      string      `json:"title,omitempty"`
	Descr      string      `json:"descr,omitempty"`
	Type       string      `json:"type,omitempty"`
	Dtype      string      `json:"dtype,omitempty"`
	Base       string      `json:"base,omitempty"`
	Enum       []string    `json:"enum,omitempty"`
	Terms      bool        `json:"terms,omitempty"`
	Units      string      `json:"units,omitempty"`
	Dict       string      `json:"dict,omitempty"`
	Scale      *float64    `json:"scale,omitempty"`
	Disp       bool        `json:"disp,omitempty"`
	Required   *bool       `json:"required,omitempty"`
	Reversed   bool        `json:"reversed,omitempty"`
	Attachment bool        `json:"attachment,omitempty"`
	Wildcard   bool        `json:"wildcard,omitempty"`
	Store      bool        `json:"store,omitempty"`
	Stats      *FieldStats `json:"stats,omitempty"`
	Sub        []*Field    `json:"sub,omitempty"`
}

// FieldStats holds either numeric stats (min, max, avg) or the top terms of a field.
type FieldStats struct {
	Count  int64    `json:"count,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	Others int64    `json:"others,omitempty"`
	Terms  []Term   `json:"terms,omitempty"`
}

// Term is a value of a field with the number of rows holding this value.
type Term struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

// Row is a flat mapping from a leaf field name to its value.
type Row map[string]any

// Filters maps field names to a filter value: a scalar, a list of scalars,
// a [Range] or a [Wildcard].
type Filters map[string]any

// Range filters a field on an inclusive interval. Either bound may be omitted.
type Range struct {
	Gte any `json:"gte,omitempty"`
	Lte any `json:"lte,omitempty"`
}

// Wildcard filters a keyword field with a pattern containing '*' and/or '?'.
type Wildcard struct {
	Wildcard string `json:"wildcard"`
}

// Sort orders data rows on a field.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// Sampling randomly selects a fraction of the matching rows.
type Sampling struct {
	Sample float64 `json:"sample,omitempty"`
	Seed   int64   `json:"seed,omitempty"`
}

// DataRequest is the body of a POST to /{catalog}/data.
type DataRequest struct {
	Fields  []string
	Filters Filters
	Sort    []Sort
	Count   int
	Offset  int
	Sampling
}

// MarshalJSON flattens filters into the request object, as expected by the API.
func (r DataRequest) MarshalJSON() ([]byte, error) {
	body := flatten(r.Filters, r.Sampling)
	body["object"] = true
	body["fields"] = r.Fields
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if r.Count > 0 {
		body["count"] = r.Count
	}
	if r.Offset > 0 {
		body["offset"] = r.Offset
	}

	return json.Marshal(body)
}

// CountRequest is the body of a POST to /{catalog}/count.
type CountRequest struct {
	Filters Filters
	Sampling
}

// MarshalJSON flattens filters into the request object.
func (r CountRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(flatten(r.Filters, r.Sampling))
}

// HistogramField is one bucketed dimension of a histogram request.
type HistogramField struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
	Log   bool   `json:"log,omitempty"`
}

// HistogramRequest is the body of a POST to /{catalog}/histogram.
//
// When Quartiles names a field, every bucket carries the quartiles of that field.
type HistogramRequest struct {
	Fields    []HistogramField
	Quartiles string
	Filters   Filters
	Sampling
}

// MarshalJSON flattens filters into the request object.
func (r HistogramRequest) MarshalJSON() ([]byte, error) {
	body := flatten(r.Filters, r.Sampling)
	body["fields"] = r.Fields
	if r.Quartiles != "" {
		body["quartiles"] = r.Quartiles
	}

	return json.Marshal(body)
}

// Histogram is the response of the histogram endpoint.
type Histogram struct {
	Sizes   []float64 `json:"sizes"`
	Buckets []Bucket  `json:"buckets"`
}

// Bucket is a histogram bucket. Key holds the lower bound of the bucket along each requested field.
type Bucket struct {
	Key       []any     `json:"key"`
	Count     int64     `json:"count"`
	Quartiles []float64 `json:"quartiles,omitempty"`
}

func flatten(filters Filters, sampling Sampling) map[string]any {
	body := make(map[string]any, len(filters)+2)
	maps.Copy(body, filters)

	if sampling.Sample > 0 && sampling.Sample < 1 {
		body["sample"] = sampling.Sample
		body["seed"] = sampling.Seed
	}

	return body
}
