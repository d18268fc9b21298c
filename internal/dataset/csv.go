package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileTimeLayout is the timestamp layout used in output file names.
const FileTimeLayout = "2006-01-02_15-04-05"

// FileName returns the output file name for a run started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("glassdoor_jobs_%s.csv", t.Format(FileTimeLayout))
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// WriteCSV writes a header of Columns() followed by one line per row.
// Absent cells are written as empty strings.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(cols))
	for i := range t.records {
		for j, col := range cols {
			line[j], _ = t.Cell(i, col)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the table to dir/name, creating dir if needed, and returns
// the file path.
func (t *Table) SaveCSV(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
