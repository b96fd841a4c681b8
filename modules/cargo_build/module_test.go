package cargo_build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/matchgridgo/internal/subproc"
)

// stubCargo installs a fake cargo executable at the front of PATH and
// returns the directory it lives in.
func stubCargo(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	body := "#!/bin/sh\n" + script + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cargo"), []byte(body), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}

func TestOnRunCargoBuild_ReportsExecutable(t *testing.T) {
	// Arrange
	stubDir := stubCargo(t, `echo "$@" > "$(dirname "$0")/args.txt"
echo '{"reason":"compiler-artifact","executable":"/work/target/release/my_bot"}'
echo '{"reason":"build-finished","success":true}'`)

	// Act
	out, err := OnRunCargoBuild(context.Background(), &Deps{}, &Input{
		ManifestDir: t.TempDir(),
		Release:     true,
		Bin:         "my_bot",
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, "/work/target/release/my_bot", out.Binary)
	require.Equal(t, "release", out.Profile)
	require.GreaterOrEqual(t, out.DurationMs, int64(0))

	args, readErr := os.ReadFile(filepath.Join(stubDir, "args.txt"))
	require.NoError(t, readErr)
	argLine := strings.TrimSpace(string(args))
	require.Contains(t, argLine, "build")
	require.Contains(t, argLine, "--message-format=json")
	require.Contains(t, argLine, "--release")
	require.Contains(t, argLine, "--bin my_bot")
}

func TestOnRunCargoBuild_DebugProfileOmitsReleaseFlag(t *testing.T) {
	// Arrange
	stubDir := stubCargo(t, `echo "$@" > "$(dirname "$0")/args.txt"
echo '{"reason":"compiler-artifact","executable":"/work/target/debug/my_bot"}'`)

	// Act
	out, err := OnRunCargoBuild(context.Background(), &Deps{}, &Input{
		ManifestDir: t.TempDir(),
		Release:     false,
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, "debug", out.Profile)

	args, readErr := os.ReadFile(filepath.Join(stubDir, "args.txt"))
	require.NoError(t, readErr)
	require.NotContains(t, string(args), "--release")
}

func TestOnRunCargoBuild_PropagatesExitCode(t *testing.T) {
	// Arrange
	stubCargo(t, `echo 'error[E0308]: mismatched types' >&2
exit 101`)

	// Act
	_, err := OnRunCargoBuild(context.Background(), &Deps{}, &Input{
		ManifestDir: t.TempDir(),
		Release:     true,
	})

	// Assert: the compiler's exit code and stderr tail ride the error chain.
	require.Error(t, err)
	require.Contains(t, err.Error(), "cargo build failed")

	var exitErr *subproc.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 101, exitErr.Code)
	require.Contains(t, exitErr.Stderr, "mismatched types")
}

func TestParseExecutable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name: "last artifact wins",
			stream: `{"reason":"compiler-artifact","executable":"/t/libdep.rlib"}
{"reason":"compiler-artifact","executable":"/t/my_bot"}`,
			want: "/t/my_bot",
		},
		{
			name: "artifacts without executables are skipped",
			stream: `{"reason":"compiler-artifact","executable":"/t/my_bot"}
{"reason":"compiler-artifact"}
{"reason":"build-finished","success":true}`,
			want: "/t/my_bot",
		},
		{
			name: "garbage and truncated lines are skipped",
			stream: `eason":"compiler-artifact","executable":"/t/cut_off"}
warning: unused variable
{"reason":"compiler-artifact","executable":"/t/my_bot"}`,
			want: "/t/my_bot",
		},
		{
			name:   "no artifacts",
			stream: `{"reason":"build-finished","success":true}`,
			want:   "",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, parseExecutable(tc.stream))
		})
	}
}
