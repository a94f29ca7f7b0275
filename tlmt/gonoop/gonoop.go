// Package gonoop is the telemetry backend used when telemetry is disabled
// or unconfigured.
package gonoop

import (
	"context"

	"github.com/mapscout/mapscout/tlmt"
)

type noop struct{}

func New() tlmt.Telemetry {
	return noop{}
}

func (noop) Send(context.Context, tlmt.Event) error { return nil }

func (noop) Close() error { return nil }
