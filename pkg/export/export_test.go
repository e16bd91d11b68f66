package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersSections(t *testing.T) {
	out, err := NewCSVExporter().Render(
		Table{Name: "Profile", Headers: []string{"Field", "Value"}, Rows: [][]string{{"Email", "test@lob.local"}}},
		Table{Name: "Sessions", Headers: []string{"Id", "Ip", "Started"}, Rows: [][]string{{"s1", "127.0.0.1"}}},
	)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"# Profile"}, records[0])
	assert.Equal(t, []string{"Email", "test@lob.local"}, records[2])
	assert.Equal(t, []string{"# Sessions"}, records[3])
	// short rows are padded to the header width
	assert.Equal(t, []string{"s1", "127.0.0.1", ""}, records[5])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{Name: "Empty"})
	assert.Error(t, err)
	_, err = NewCSVExporter().Render()
	assert.Error(t, err)
}

func TestRenderReceipt(t *testing.T) {
	out, err := NewPDFExporter().RenderReceipt(Receipt{
		Number:     "R-1",
		IssuedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Merchant:   "LOB",
		Cardholder: "Jane Doe",
		MaskedCard: "**** **** **** 4242",
		PlanName:   "Pro",
		Amount:     "29.00",
		Currency:   "USD",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
