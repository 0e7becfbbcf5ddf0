package table

import (
	"bytes"
	"html/template"
	"io"
)

var tableTemplate = template.Must(template.New("table").Parse(`<style>
.flathub-table { overflow-x: auto; margin: 1em; font-family: sans-serif; font-size: 12px; }
.flathub-table table { border-collapse: collapse; }
.flathub-table th { border: 2px solid #ccc; padding: 2px 8px; }
.flathub-table td { border: 1px solid #eee; padding: 2px 8px; white-space: nowrap; text-align: right; }
</style>
<div class="flathub-table">
<table>
{{- with .Title }}
<caption>{{ . }}</caption>
{{- end }}
<thead>
{{- range .Header }}
<tr>{{ range . }}<th colspan="{{ .ColSpan }}" rowspan="{{ .RowSpan }}">{{ .Label }}</th>{{ end }}</tr>
{{- end }}
</thead>
<tbody>
{{- range .Body }}
<tr>{{ range . }}<td>{{ . }}</td>{{ end }}</tr>
{{- end }}
</tbody>
</table>
</div>
`))

type headerCell struct {
	Label   string
	ColSpan int
	RowSpan int
}

type tableView struct {
	Title  string
	Header [][]headerCell
	Body   [][]string
}

// RenderHTML writes the table as an HTML fragment.
//
// Header cells covered by a merged cell from a row above are not rendered.
func (t *Table) RenderHTML(w io.Writer) error {
	view := tableView{
		Title:  t.Title,
		Header: make([][]headerCell, 0, len(t.Layout.Rows)),
		Body:   t.Cells,
	}

	for i := range t.Layout.Rows {
		rendered := t.Layout.Rendered(i)
		row := make([]headerCell, 0, len(rendered))

		for _, cell := range rendered {
			row = append(row, headerCell{
				Label:   Label(cell),
				ColSpan: cell.ColSpan,
				RowSpan: cell.RowSpan,
			})
		}

		view.Header = append(view.Header, row)
	}

	return tableTemplate.Execute(w, view)
}

// HTML returns the table as an HTML fragment, to embed in a page.
func (t *Table) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.RenderHTML(&buf); err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil //nolint:gosec // content escaped by the table template
}
