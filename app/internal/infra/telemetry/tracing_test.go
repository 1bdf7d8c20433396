package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestExporterOptions(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     int
	}{
		{name: "URL", endpoint: "http://collector:4317", want: 1},
		{name: "Host and port", endpoint: "collector:4317", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, exporterOptions(tt.endpoint), tt.want)
		})
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), Config{ServiceName: "test"})

	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_URLEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracing(context.Background(), Config{
		ServiceName: "test",
		Version:     "v0",
		Endpoint:    "http://127.0.0.1:4317",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
