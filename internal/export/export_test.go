package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
)

func sampleLeads() []model.EnrichedProfile {
	return []model.EnrichedProfile{
		{
			CanonicalProfile: model.CanonicalProfile{
				Name:        "Jane Doe",
				CurrentRole: model.StringPtr("Data Scientist"),
				Company:     "Acme",
				Education:   "University of Nairobi",
				Country:     "Kenya",
				City:        "Nairobi",
				LinkedInURL: model.StringPtr("https://www.linkedin.com/in/jane-doe"),
				Summary:     "Builds models.",
			},
			Email: "jane.doe@acme.com",
			Score: 8,
		},
		{
			CanonicalProfile: model.CanonicalProfile{
				Name:      model.UnknownName,
				Company:   model.NotAvailable,
				Education: model.NotAvailable,
				Country:   model.NotAvailable,
				City:      model.NotAvailable,
				Summary:   model.NotAvailable,
			},
			Email: "noemail@generated.edu",
			Score: 5,
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleLeads(), "")

	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"Jane Doe", "https://www.linkedin.com/in/jane-doe", "Data Scientist",
		"University of Nairobi", "Kenya", "jane.doe@acme.com", "8",
	}, rows[0])
	assert.Equal(t, []string{"Null", "Null", "Null", "Null", "Null", "noemail@generated.edu", "5"}, rows[1])
}

func TestRows_CustomPlaceholder(t *testing.T) {
	rows := Rows(sampleLeads()[1:], "N/A")
	assert.Equal(t, "N/A", rows[0][0])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLeads(), DefaultPlaceholder))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "Jane Doe", records[1][0])
	assert.Equal(t, "Null", records[2][1])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, ""))
	assert.Equal(t, "Name,LinkedIn URL,Current Role,University,Country,Email,Score\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleLeads(), DefaultPlaceholder))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "LinkedIn URL", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "Jane Doe", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Null", sheet.Rows[2].Cells[3].String())

	score, err := sheet.Rows[1].Cells[6].Int()
	require.NoError(t, err)
	assert.Equal(t, 8, score)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFormatWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSV.Write(&buf, sampleLeads(), ""))
	assert.Contains(t, buf.String(), "jane.doe@acme.com")
}
