package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dataset is a table keyed by column name. Labels, when set, replace the
// column names in the rendered header row.
type Dataset struct {
	Headers []string
	Labels  map[string]string
	Rows    []map[string]string
}

var errNoColumns = errors.New("dataset has no columns")

func (d Dataset) headerRow() []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		if label, ok := d.Labels[h]; ok && label != "" {
			out[i] = label
			continue
		}
		out[i] = h
	}
	return out
}

// CSVExporter writes datasets as RFC 4180 CSV. Cells that a spreadsheet
// would evaluate as formulas are prefixed with a quote.
type CSVExporter struct {
	// BOM prepends a UTF-8 byte order mark so Excel detects the encoding.
	BOM bool
}

// NewCSVExporter builds a CSV exporter without a byte order mark.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render returns the dataset encoded as CSV.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the dataset to w.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("csv: %w", errNoColumns)
	}
	if e.BOM {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			return fmt.Errorf("csv bom: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(data.headerRow()); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i, col := range data.Headers {
			record[i] = neutralise(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", n+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func neutralise(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + cell
	case '-':
		// negative coordinates stay numeric
		if strings.Trim(cell[1:], "0123456789.") == "" && len(cell) > 1 {
			return cell
		}
		return "'" + cell
	}
	return cell
}
