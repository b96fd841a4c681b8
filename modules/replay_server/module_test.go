package replay_server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOnRunReplayServer_ServesForConfiguredDuration(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "match.hlt"), []byte("x"), 0644))

	// Act
	start := time.Now()
	out, err := OnRunReplayServer(context.Background(), &Deps{}, &Input{
		Directory: dir,
		Duration:  "100ms",
	})

	// Assert
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	require.Contains(t, out.URL, "http://127.0.0.1:")
	require.Zero(t, out.ReplaysSeen)
}

func TestOnRunReplayServer_CountsReplaysThatLandWhileServing(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "fresh.hlt"), []byte("x"), 0644)
	}()

	// Act
	out, err := OnRunReplayServer(context.Background(), &Deps{}, &Input{
		Directory: dir,
		Duration:  "750ms",
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, 1, out.ReplaysSeen)
}

func TestOnRunReplayServer_ZeroDurationServesUntilCancelled(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Act
	_, err := OnRunReplayServer(ctx, &Deps{}, &Input{
		Directory: t.TempDir(),
		Duration:  "0",
	})

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOnRunReplayServer_RequiresExistingDirectory(t *testing.T) {
	t.Parallel()

	_, err := OnRunReplayServer(context.Background(), &Deps{}, &Input{
		Directory: filepath.Join(t.TempDir(), "missing"),
		Duration:  "1s",
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "replay directory")
}

func TestOnRunReplayServer_RejectsBadDuration(t *testing.T) {
	t.Parallel()

	_, err := OnRunReplayServer(context.Background(), &Deps{}, &Input{
		Directory: t.TempDir(),
		Duration:  "soon",
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")
}
