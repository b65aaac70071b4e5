// Package otel wires OpenTelemetry metrics with a Prometheus exporter.
package otel

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/MeenalAppSphere/sprintd"

// InitMeterProvider installs a Prometheus-backed meter provider globally
// and returns the registry to expose at /metrics.
func InitMeterProvider() (*prom.Registry, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	return registry, nil
}

// Meter returns the service meter.
func Meter() metric.Meter {
	return otel.GetMeterProvider().Meter(meterName)
}
