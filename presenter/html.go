package presenter

import "strings"

const (
	// NoRecordsHTML is rendered instead of a table when there are no records
	NoRecordsHTML = `<p>No medicines found.</p>`

	flaggedTextStyle  = "color: red;"
	invalidPriceStyle = "background-color: #ffdada;"
	tableHeaderHTML   = "<thead><tr><th>Name</th><th>Price</th></tr></thead>"
)

// RenderHTML builds the HTML fragment for a rendered table.
// Every value coming from the backend is escaped before it is written.
func RenderHTML(table RenderedTable) string {
	if table.Empty {
		return NoRecordsHTML
	}

	var sb strings.Builder
	sb.Grow(128 + len(table.Rows)*160)

	sb.WriteString(`<table class="medicines">`)
	sb.WriteString(tableHeaderHTML)
	sb.WriteString("<tbody>")

	for _, row := range table.Rows {
		writeRowHTML(&sb, row)
	}

	sb.WriteString("</tbody></table>")
	return sb.String()
}

func writeRowHTML(sb *strings.Builder, row RenderedRow) {
	invalid := row.Price.Status == PriceInvalid

	if invalid {
		sb.WriteString(`<tr class="invalid-price" style="` + invalidPriceStyle + `">`)
	} else {
		sb.WriteString("<tr>")
	}

	name := EscapeHTML(row.DisplayName)
	sb.WriteString(`<td title="`)
	sb.WriteString(name)
	sb.WriteString(`"`)
	if row.NameFlag {
		sb.WriteString(` style="` + flaggedTextStyle + `"`)
	}
	sb.WriteString(">")
	sb.WriteString(name)
	sb.WriteString("</td>")

	sb.WriteString(`<td title="`)
	sb.WriteString(EscapeHTML(row.Price.Advisory))
	sb.WriteString(`"`)
	switch row.Price.Status {
	case PriceUnavailable:
		sb.WriteString(` style="` + flaggedTextStyle + `"`)
	case PriceInvalid:
		sb.WriteString(` style="` + invalidPriceStyle + `"`)
	}
	sb.WriteString(">")
	sb.WriteString(EscapeHTML(row.Price.Text))
	sb.WriteString("</td></tr>")
}
