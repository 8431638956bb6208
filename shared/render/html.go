package render

import (
	"html"
	"strings"
)

// HTML turns a table description into an HTML table. Pure formatting, no
// knowledge of where the table came from.
func HTML(table StatusTable) string {
	var b strings.Builder

	b.WriteString("<table>")
	if len(table.Header) > 0 {
		b.WriteString("<tr>")
		for _, h := range table.Header {
			b.WriteString("<th>")
			b.WriteString(html.EscapeString(h))
			b.WriteString("</th>")
		}
		b.WriteString("</tr>")
	}

	for _, cells := range table.Rows {
		b.WriteString("<tr>")
		for _, cell := range cells {
			b.WriteString("<td>")
			if cell.Link != "" {
				b.WriteString(`<a href="`)
				b.WriteString(html.EscapeString(cell.Link))
				b.WriteString(`">`)
				b.WriteString(html.EscapeString(cell.Text))
				b.WriteString("</a>")
			} else {
				b.WriteString(html.EscapeString(cell.Text))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	return b.String()
}
