package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	ctx := context.Background()
	out, err := Setup(ctx, "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, out.TracerProvider)
	require.Nil(t, out.MeterProvider)
	require.NoError(t, out.Shutdown(ctx))
}

func TestConnConfig(t *testing.T) {
	require.False(t, OtlpConnConfig{}.configured())
	require.True(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}.configured())
	require.False(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}.useGrpc())
	require.True(t, OtlpConnConfig{
		GrpcEndpoint: "http://localhost:4317",
		HttpEndpoint: "http://localhost:4318",
	}.useGrpc())
}

func TestInstrumentPerfStatsStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	InstrumentPerfStats(ctx, time.Millisecond*10)
	time.Sleep(time.Millisecond * 50)
	cancel()
}
