package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreSheetDataset() Dataset {
	headers := []string{
		"Round", "Course ID", "Course Display Name", "Company ID", "Student Name",
		"Theory Score", "Practical Score", "BS Activity Score", "Attitude Score",
		"Pass/Fail", "Remarks",
	}
	row := map[string]string{}
	for i, h := range headers {
		row[h] = fmt.Sprintf("value-%d", i)
	}
	return Dataset{Headers: headers, Rows: []map[string]string{row}}
}

func TestPDFRenderWideScoreSheet(t *testing.T) {
	exporter := NewPDFExporter()

	payload, err := exporter.Render(scoreSheetDataset(), "score sheet")
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFColumnWidthsFillPrintableArea(t *testing.T) {
	exporter := NewPDFExporter()
	data := scoreSheetDataset()

	widths := exporter.columnWidths(data, 277.0)
	require.Len(t, widths, len(data.Headers))
	sum := 0.0
	for _, w := range widths {
		assert.Greater(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 277.0, sum, 0.01)
}
