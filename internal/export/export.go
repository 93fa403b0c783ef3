// Package export renders enriched leads in the tabular export format and
// pushes them to downstream systems.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

// DefaultPlaceholder stands in for missing values.
const DefaultPlaceholder = "Null"

// DefaultFileName is the file written by the CLI when no path is given.
const DefaultFileName = "leads.csv"

// Columns is the fixed header of every export. Downstream consumers depend
// on its order.
var Columns = []string{"Name", "LinkedIn URL", "Current Role", "University", "Country", "Email", "Score"}

// Rows renders profiles in column order. Missing values become placeholder;
// an empty placeholder uses DefaultPlaceholder.
func Rows(profiles []model.EnrichedProfile, placeholder string) [][]string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	cell := func(v string) string {
		if model.IsMissing(v) {
			return placeholder
		}
		return v
	}

	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			cell(p.Name),
			cell(p.URL()),
			cell(p.Role()),
			cell(p.Education),
			cell(p.Country),
			cell(p.Email),
			strconv.Itoa(p.Score),
		})
	}
	return rows
}

// WriteCSV writes the header and one row per profile.
func WriteCSV(w io.Writer, profiles []model.EnrichedProfile, placeholder string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := cw.WriteAll(Rows(profiles, placeholder)); err != nil {
		return eris.Wrap(err, "export: write csv rows")
	}
	return nil
}

// WriteXLSX writes a single "Leads" sheet with the same layout as WriteCSV.
// The Score column is numeric.
func WriteXLSX(w io.Writer, profiles []model.EnrichedProfile, placeholder string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}

	for i, values := range Rows(profiles, placeholder) {
		row := sheet.AddRow()
		for _, v := range values[:len(values)-1] {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(profiles[i].Score)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Write renders profiles to w in format f.
func (f Format) Write(w io.Writer, profiles []model.EnrichedProfile, placeholder string) error {
	if f == FormatXLSX {
		return WriteXLSX(w, profiles, placeholder)
	}
	return WriteCSV(w, profiles, placeholder)
}
