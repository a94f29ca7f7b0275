// Package goposthog sends telemetry events to a PostHog instance.
package goposthog

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/mapscout/mapscout/tlmt"
)

type service struct {
	client     posthog.Client
	distinctID string
	baseProps  map[string]any
}

func New(apiKey, endpoint string) (tlmt.Telemetry, error) {
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	distinctID := uuid.New().String()
	props := map[string]any{
		"goos":   runtime.GOOS,
		"goarch": runtime.GOARCH,
	}

	if info, err := host.Info(); err == nil {
		if info.HostID != "" {
			distinctID = info.HostID
		}

		props["platform"] = info.Platform
		props["kernel_arch"] = info.KernelArch
	}

	return &service{
		client:     client,
		distinctID: distinctID,
		baseProps:  props,
	}, nil
}

func (s *service) Send(_ context.Context, event tlmt.Event) error {
	properties := posthog.NewProperties()

	for k, v := range s.baseProps {
		properties.Set(k, v)
	}

	for k, v := range event.Params {
		properties.Set(k, v)
	}

	return s.client.Enqueue(posthog.Capture{
		DistinctId: s.distinctID,
		Event:      event.Name,
		Timestamp:  event.CreatedAt,
		Properties: properties,
	})
}

func (s *service) Close() error {
	return s.client.Close()
}
