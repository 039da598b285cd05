package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/staffdesk/roster-service/internal/domain"
)

func sampleRecords() []domain.StaffRecord {
	return []domain.StaffRecord{
		{ID: 1, Fileno: "NECO/001", Phone: "08031234567", Email: "ada@example.org"},
		{ID: 2, Fileno: "NECO/002", Phone: "", Email: `o"neil@example.org`},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	expected := "fileno,phone,email\n" +
		`"NECO/001","08031234567","ada@example.org"` + "\n" +
		`"NECO/002","","o""neil@example.org"`
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "fileno,phone,email", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"NECO/001", "08031234567", "ada@example.org"}, rows[1])
	assert.Equal(t, "NECO/002", rows[2][0])
}

func TestParseFormatAndFilename(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "staff_export_2024-03-09.csv", Filename(FormatCSV, day))
	assert.Equal(t, "staff_export_2024-03-09.xlsx", Filename(FormatXLSX, day))
}
