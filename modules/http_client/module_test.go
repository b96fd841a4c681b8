package http_client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateHttpClient_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client, err := CreateHttpClient(context.Background(), &Input{Timeout: "5s"})

	require.NoError(t, err)
	require.Equal(t, 5*time.Second, client.Timeout)
	require.NoError(t, DestroyHttpClient(client))
}

func TestCreateHttpClient_RejectsBadDuration(t *testing.T) {
	t.Parallel()

	_, err := CreateHttpClient(context.Background(), &Input{Timeout: "soon"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid timeout")
}
