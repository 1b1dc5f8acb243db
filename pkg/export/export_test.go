package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"id", "title", "status"},
		Rows: []map[string]string{
			{"id": "r-1", "title": "Dumped tyres, riverbank", "status": "PENDING"},
			{"id": "r-2", "title": "Smoke", "status": "RESOLVED"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title,status", lines[0])
	assert.Equal(t, `r-1,"Dumped tyres, riverbank",PENDING`, lines[1])
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "reports")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestCSVExporterLabelsAndBOM(t *testing.T) {
	data := sampleDataset()
	data.Labels = map[string]string{"title": "Title"}
	out, err := (&CSVExporter{BOM: true}).Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("\ufeff")))
	assert.True(t, strings.HasPrefix(string(out[3:]), "id,Title,status\n"))
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"title", "lat"},
		Rows:    []map[string]string{{"title": "=HYPERLINK(\"x\")", "lat": "-6.200000"}, {"title": "-rm", "lat": "@1"}},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"'=HYPERLINK(""x"")",-6.200000`, lines[1])
	assert.Equal(t, `'-rm,'@1`, lines[2])
}
