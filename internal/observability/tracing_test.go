package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewise/fireedu-api/internal/config"
	"github.com/firewise/fireedu-api/pkg/logger"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, logger.NewNop())

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_StdoutExporter(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, SampleRatio: 0}, logger.NewNop())

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(2))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
