package writer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mapscout/mapscout/leads"
)

type csvWriter struct {
	out     io.Writer
	withBOM bool
}

// NewCsvWriter writes the 15-field export contract as CSV. withBOM prefixes
// a UTF-8 BOM so Excel detects the encoding.
func NewCsvWriter(out io.Writer, withBOM bool) ResultWriter {
	return &csvWriter{out: out, withBOM: withBOM}
}

func (w *csvWriter) Write(_ context.Context, records []leads.BusinessRecord) error {
	if w.withBOM {
		if _, err := w.out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write UTF-8 BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w.out)

	var empty leads.BusinessRecord
	if err := cw.Write(empty.CsvHeaders()); err != nil {
		return err
	}

	for i := range records {
		if err := cw.Write(records[i].CsvRow()); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
