// Package tlmt defines the run-level telemetry contract. Telemetry is
// advisory: a failing or disabled backend never affects the pipeline.
package tlmt

import (
	"context"
	"time"
)

type Event struct {
	Name      string
	CreatedAt time.Time
	Params    map[string]any
}

func NewEvent(name string, params map[string]any) Event {
	return Event{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Params:    params,
	}
}

type Telemetry interface {
	Send(ctx context.Context, event Event) error
	Close() error
}
