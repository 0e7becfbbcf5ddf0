package chart

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fredbi/flathubviz/internal/pkg/table"
	"github.com/go-echarts/go-echarts/v2/components"
)

var bodyEnd = []byte("</body>")

// Page represents a page containing multiple charts and a data table.
//
// A [Page] knows how to [Page.Render] as HTML.
type Page struct {
	Title  string
	Charts []*Chart
	Table  *table.Table
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
	}
}

// AddChart adds a chart to the page.
func (p *Page) AddChart(c *Chart) {
	p.Charts = append(p.Charts, c)
}

// SetTable sets the data table displayed below the charts.
func (p *Page) SetTable(t *table.Table) {
	p.Table = t
}

// Render writes the page HTML to the given writer.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.SetPageTitle(p.Title)

	for _, c := range p.Charts {
		if chart := c.Build(); chart != nil {
			page.AddCharts(chart)
		}
	}

	if p.Table == nil {
		return page.Render(w)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return err
	}

	fragment, err := p.Table.HTML()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	content := buf.Bytes()
	split := bytes.LastIndex(content, bodyEnd)
	if split < 0 {
		split = len(content)
	}

	for _, part := range [][]byte{content[:split], []byte(fragment), content[split:]} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}

	return nil
}
