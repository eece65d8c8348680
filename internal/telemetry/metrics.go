// Package telemetry counts what a session does through the global OTel meter
// provider, which is a no-op until one is installed.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the session counters. A nil *Metrics records nothing.
type Metrics struct {
	ticks      metric.Int64Counter
	collisions metric.Int64Counter
	effects    metric.Int64Counter
}

func New() (*Metrics, error) {
	m := meter()
	metrics := &Metrics{}

	var err error
	metrics.ticks, err = m.Int64Counter(
		"farmtruck.ticks",
		metric.WithDescription("Simulation ticks run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	metrics.collisions, err = m.Int64Counter(
		"farmtruck.collisions",
		metric.WithDescription("Vehicle collisions handled, by action"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}

	metrics.effects, err = m.Int64Counter(
		"farmtruck.effects",
		metric.WithDescription("Audio and UI cues fired, by effect"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating effects counter: %w", err)
	}

	return metrics, nil
}

func (m *Metrics) Tick(ctx context.Context) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1)
}

func (m *Metrics) Collision(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.collisions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *Metrics) Effect(ctx context.Context, effect string) {
	if m == nil {
		return
	}
	m.effects.Add(ctx, 1, metric.WithAttributes(attribute.String("effect", effect)))
}
