package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"namereg/internal/platform/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	for _, cfg := range []config.TracingConfig{
		{},
		{Enabled: true},
		{Enabled: false, Endpoint: "http://localhost:4318"},
	} {
		shutdown, err := Setup(context.Background(), "namereg", cfg)
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestSetupEnabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "namereg", config.TracingConfig{
		Enabled:     true,
		Endpoint:    "http://127.0.0.1:4318",
		SampleRatio: 0.5,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
