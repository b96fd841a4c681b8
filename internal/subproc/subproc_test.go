package subproc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutputOnSuccess(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cmd := Command{
		Path: "sh",
		Args: []string{"-c", "echo to-stdout; echo to-stderr >&2"},
	}

	// --- Act ---
	result, err := Run(context.Background(), cmd)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "to-stdout")
	require.Contains(t, result.Stderr, "to-stderr")
	require.Greater(t, result.Duration, time.Duration(0))
}

func TestRun_NonZeroExitReturnsExitError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cmd := Command{
		Path: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
	}

	// --- Act ---
	result, err := Run(context.Background(), cmd)

	// --- Assert ---
	require.Error(t, err)
	require.Equal(t, 3, result.ExitCode)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "error chain should carry *ExitError, got: %v", err)
	require.Equal(t, 3, exitErr.Code)
	require.Contains(t, exitErr.Stderr, "boom")
}

func TestRun_ContextDeadlineInterruptsCommand(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	cmd := Command{
		Path: "sh",
		Args: []string{"-c", "sleep 30"},
	}

	// --- Act ---
	_, err := Run(ctx, cmd)

	// --- Assert ---
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var exitErr *ExitError
	require.False(t, errors.As(err, &exitErr), "an interrupted command is not a non-zero exit")
}

func TestRun_MissingBinaryIsNotExitError(t *testing.T) {
	t.Parallel()

	cmd := Command{Path: "definitely-not-a-real-binary-3f9c"}

	_, err := Run(context.Background(), cmd)

	require.Error(t, err)
	var exitErr *ExitError
	require.False(t, errors.As(err, &exitErr))
}

func TestRun_ExtraEnvIsVisibleToChild(t *testing.T) {
	t.Parallel()

	cmd := Command{
		Path: "sh",
		Args: []string{"-c", "echo $MATCHGRID_TEST_VALUE"},
		Env:  []string{"MATCHGRID_TEST_VALUE=from-parent"},
	}

	result, err := Run(context.Background(), cmd)

	require.NoError(t, err)
	require.Contains(t, result.Stdout, "from-parent")
}

func TestRun_StdoutTeeReceivesFullStream(t *testing.T) {
	t.Parallel()

	var tee bytes.Buffer
	cmd := Command{
		Path:   "sh",
		Args:   []string{"-c", "echo line-one; echo line-two"},
		Stdout: &tee,
	}

	result, err := Run(context.Background(), cmd)

	require.NoError(t, err)
	require.Equal(t, result.Stdout, tee.String())
	require.Contains(t, tee.String(), "line-two")
}

func TestTailBuffer_RetainsOnlyTheTail(t *testing.T) {
	t.Parallel()

	tail := newTailBuffer(16)

	_, err := tail.Write([]byte(strings.Repeat("a", 10)))
	require.NoError(t, err)
	_, err = tail.Write([]byte(strings.Repeat("b", 10)))
	require.NoError(t, err)

	got := tail.String()
	require.Len(t, got, 16)
	require.Equal(t, strings.Repeat("a", 6)+strings.Repeat("b", 10), got)
}

func TestTailBuffer_SingleOversizedWrite(t *testing.T) {
	t.Parallel()

	tail := newTailBuffer(4)

	_, err := tail.Write([]byte("abcdefgh"))
	require.NoError(t, err)

	require.Equal(t, "efgh", tail.String())
}
