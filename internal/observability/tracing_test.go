package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
