package parser

import (
	"log/slog"

	"github.com/fredbi/flathubviz/internal/pkg/fields"
)

// CatalogReport allows to inspect the field hierarchy of a parsed catalog.
type CatalogReport struct {
	Catalog       string        `json:"catalog"`
	AnalyzedFiles []string      `json:"analyzed_files,omitempty"`
	Rows          int           `json:"rows"`
	Depth         int           `json:"depth"`
	Groups        int           `json:"groups"`
	Leaves        int           `json:"leaves"`
	Fields        []FieldReport `json:"fields"`
}

// FieldReport describes a leaf field of a catalog.
type FieldReport struct {
	Path     string            `json:"path"`
	Name     string            `json:"name"`
	Titles   []string          `json:"titles"`
	Type     string            `json:"type"`
	Units    string            `json:"units,omitempty"`
	Hash     uint64            `json:"hash"`
	Min      *float64          `json:"min,omitempty"`
	Max      *float64          `json:"max,omitempty"`
	LogScale bool              `json:"log_scale,omitempty"`
	Enum     []fields.EnumTerm `json:"enum,omitempty"`
	Present  int               `json:"present_in_rows"`
}

// Report produces a [CatalogReport] for a field tree, with the presence of every leaf field
// in the parsed rows.
func (p *Parser) Report(tree *fields.Tree) CatalogReport {
	r := CatalogReport{
		AnalyzedFiles: p.files,
		Rows:          len(p.rows),
	}

	if p.catalog != nil {
		r.Catalog = p.catalog.Name
	}

	if tree == nil {
		return r
	}

	r.Depth = tree.Root().Height()

	for _, node := range tree.DepthFirst() {
		if !node.IsLeaf() {
			r.Groups++

			continue
		}

		r.Leaves++
		r.Fields = append(r.Fields, p.fieldReport(node))
	}

	return r
}

func (p *Parser) fieldReport(node *fields.Node) FieldReport {
	field := node.Field()

	kind, ok := node.Type()
	if !ok {
		p.l.Warn("could not determine field type", slog.String("field", field.Name))
	}

	fr := FieldReport{
		Path:   fields.PathOf(node),
		Name:   field.Name,
		Titles: node.Titles(),
		Type:   kind.String(),
		Units:  field.Units,
		Hash:   node.Hash(),
	}

	if node.HasNumericStats() {
		fr.Min = field.Stats.Min
		fr.Max = field.Stats.Max
		if field.Stats.Avg != nil {
			fr.LogScale = fields.ShouldUseLogScale(*fr.Min, *fr.Max, *field.Stats.Avg)
		}
	}

	enum, err := fields.JoinEnums(node)
	if err != nil {
		p.l.Warn("invalid enum", slog.String("field", field.Name), slog.String("error", err.Error()))
	} else {
		fr.Enum = enum
	}

	for _, row := range p.rows {
		if _, found := row[field.Name]; found {
			fr.Present++
		}
	}

	return fr
}
