package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows under headers: a box-drawn table in text mode and a
// Markdown table otherwise. JSON callers encode their own structures.
func (r *Renderer) Table(headers []string, rows [][]string) {
	t := table.NewWriter()

	headerRow := make(table.Row, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeText {
		t.SetStyle(table.StyleLight)
		r.Println(t.Render())
		return
	}
	r.Println(t.RenderMarkdown())
}
