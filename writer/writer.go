// Package writer holds the export collaborators the core hands its final
// ordered record sequence to.
package writer

import (
	"context"

	"github.com/mapscout/mapscout/leads"
)

// ResultWriter receives the final ordered BusinessRecord sequence exactly
// once per run.
type ResultWriter interface {
	Write(ctx context.Context, records []leads.BusinessRecord) error
}
