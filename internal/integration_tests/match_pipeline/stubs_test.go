package integration_tests

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// realManifest loads one of the repo's shipped module manifests, so these
// tests exercise exactly the definitions users run against.
func realManifest(t *testing.T, module string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "modules", module, "manifest.hcl"))
	require.NoError(t, err, "could not read the shipped manifest for module %s", module)
	return string(raw)
}

// writeStub drops an executable shell script into dir and returns its path.
func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// stubCargo fakes the cargo CLI: it records its argv and one marker line per
// invocation, then emits a compiler-artifact message naming botPath as the
// built executable.
func stubCargo(t *testing.T, dir, botPath string) {
	t.Helper()
	writeStub(t, dir, "cargo", fmt.Sprintf(`printf '%%s\n' "$@" > "$(dirname "$0")/cargo_argv.txt"
echo run >> "$(dirname "$0")/cargo_invocations.txt"
echo '{"reason":"compiler-artifact","executable":"%s"}'`, botPath))
}

// stubEngine fakes the halite binary. Each invocation overwrites its argv
// recording and appends a marker line, then runs the given script.
func stubEngine(t *testing.T, dir, script string) string {
	t.Helper()
	return writeStub(t, dir, "halite", `printf '%s\n' "$@" > "$(dirname "$0")/engine_argv.txt"
echo run >> "$(dirname "$0")/engine_invocations.txt"
`+script)
}

// prependPath puts dir in front of PATH for the duration of the test, so the
// cargo_build runner resolves the stub instead of a real toolchain.
func prependPath(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err, "expected recording file %s", path)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}
