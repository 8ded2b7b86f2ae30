package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// otlpEnv are the standard variables the exporter reads when no endpoint is
// configured explicitly.
var otlpEnv = []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}

// newMeterProvider returns a provider that pushes to an OTLP/HTTP collector,
// or nil when neither endpoint nor the OTLP environment names one.
func newMeterProvider(ctx context.Context, endpoint string) (*sdkmetric.MeterProvider, error) {
	var opts []otlpmetrichttp.Option
	switch {
	case endpoint != "":
		opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
	case !otlpConfigured():
		return nil, nil
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter))), nil
}

func otlpConfigured() bool {
	for _, k := range otlpEnv {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}
