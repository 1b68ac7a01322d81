package presenter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// NoRecordsText is the plain text counterpart of NoRecordsHTML
const NoRecordsText = "No medicines found."

// RenderText writes the table as aligned plain text, one row per line.
// Flagged cells are prefixed with "!" so they stand out without colours.
func RenderText(w io.Writer, table RenderedTable) error {
	if table.Empty {
		_, err := fmt.Fprintln(w, NoRecordsText)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "NAME\tPRICE\tNOTE"); err != nil {
		return err
	}

	for _, row := range table.Rows {
		name := sanitizeTextCell(row.DisplayName)
		if row.NameFlag {
			name = "!" + name
		}
		price := row.Price.Text
		if row.PriceFlag {
			price = "!" + price
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", name, price, row.Price.Advisory); err != nil {
			return err
		}
	}

	return tw.Flush()
}

var textCellReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// sanitizeTextCell keeps a backend supplied value inside one tabwriter cell
func sanitizeTextCell(s string) string {
	return textCellReplacer.Replace(s)
}
