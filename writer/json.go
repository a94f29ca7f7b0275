package writer

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mapscout/mapscout/leads"
)

type jsonWriter struct {
	out io.Writer
}

// NewJSONWriter writes one JSON object per line, preserving record order.
func NewJSONWriter(out io.Writer) ResultWriter {
	return &jsonWriter{out: out}
}

func (w *jsonWriter) Write(_ context.Context, records []leads.BusinessRecord) error {
	enc := json.NewEncoder(w.out)

	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}

	return nil
}
