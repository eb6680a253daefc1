// Package ingest imports leads, clients, and tickets from spreadsheet
// exports. Rows are matched to fields by header name, so column order
// does not matter.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadRows reads an .xlsx or .csv file and returns the header row and
// the data rows.
func ReadRows(path string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

func readXLSX(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("ingest: xlsx has no sheets")
	}

	var header []string
	var rows [][]string
	for i, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if header == nil {
		return nil, nil, eris.New("ingest: xlsx sheet is empty")
	}
	return header, rows, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read csv")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("ingest: csv is empty")
	}
	return records[0], records[1:], nil
}

// columnIndex maps normalized header names to column positions.
// Headers are matched case-insensitively with spaces treated as
// underscores, so "Last Contact Date" and "last_contact_date" are the
// same column.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

func field(cols map[string]int, rec []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// splitList splits multi-value cells on semicolons or commas.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
