package presenter

import (
	"github.com/giygas/medicines-web/entities"
	"github.com/giygas/medicines-web/logging"
)

// RenderedRow is the display form of one record. It is always fully populated.
type RenderedRow struct {
	DisplayName string
	Price       PriceState
	NameFlag    bool // name fell back to UnknownName
	PriceFlag   bool // price is unavailable or invalid
}

// DisplayPrice returns the text shown in the price column
func (r RenderedRow) DisplayPrice() string {
	return r.Price.Text
}

// RenderedTable is the result of Render. Empty is the "no records" sentinel:
// an empty input never produces a table without rows.
type RenderedTable struct {
	Empty bool
	Rows  []RenderedRow
}

// Summary counts rows per price state
type Summary struct {
	Rows             int `json:"rows"`
	Formatted        int `json:"formatted"`
	Unavailable      int `json:"unavailable"`
	Invalid          int `json:"invalid"`
	UnknownNames     int `json:"unknown_names"`
	FlaggedRowsTotal int `json:"flagged_rows"`
}

// Render maps every record, in input order, to exactly one row.
func Render(records []entities.MedicineRecord) RenderedTable {
	if len(records) == 0 {
		return RenderedTable{Empty: true}
	}

	rows := make([]RenderedRow, 0, len(records))
	for i, record := range records {
		rows = append(rows, renderRow(i, record))
	}

	return RenderedTable{Rows: rows}
}

// renderRow isolates one record: a panic while reading it only degrades this row.
func renderRow(index int, record entities.MedicineRecord) (row RenderedRow) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Record could not be classified, using fallbacks", "index", index, "panic", r)
			row = fallbackRow()
		}
	}()

	name := ClassifyName(record.Field("name"))
	price := ClassifyPrice(record.Field("price"))

	return RenderedRow{
		DisplayName: name,
		Price:       price,
		NameFlag:    name == UnknownName,
		PriceFlag:   price.Status != PriceFormatted,
	}
}

func fallbackRow() RenderedRow {
	return RenderedRow{
		DisplayName: UnknownName,
		Price: PriceState{
			Status:   PriceInvalid,
			Text:     InvalidPriceText,
			Advisory: InvalidPriceAdvisory,
		},
		NameFlag:  true,
		PriceFlag: true,
	}
}

// Summarize counts the rows of a table per display state
func Summarize(table RenderedTable) Summary {
	s := Summary{Rows: len(table.Rows)}
	for _, row := range table.Rows {
		switch row.Price.Status {
		case PriceFormatted:
			s.Formatted++
		case PriceUnavailable:
			s.Unavailable++
		case PriceInvalid:
			s.Invalid++
		}
		if row.NameFlag {
			s.UnknownNames++
		}
		if row.NameFlag || row.PriceFlag {
			s.FlaggedRowsTotal++
		}
	}
	return s
}
