package replayview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	srv, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServer_ListsReplaysNewestFirst(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	older := filepath.Join(dir, "replay-old.hlt")
	newer := filepath.Join(dir, "replay-new.hlt")
	require.NoError(t, os.WriteFile(older, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(newer, []byte("new"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))
	// A non-replay file must not show up in the listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	srv := startTestServer(t, dir)

	// Act
	resp, err := http.Get(srv.URL() + "/replays")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var listing []ReplayInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing, 2)
	require.Equal(t, "replay-new.hlt", listing[0].Name)
	require.Equal(t, "replay-old.hlt", listing[1].Name)
}

func TestServer_ServesReplayFile(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "match.hlt"), []byte("replay-bytes"), 0644))
	srv := startTestServer(t, dir)

	// Act
	resp, err := http.Get(srv.URL() + "/replays/match.hlt")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := make([]byte, 32)
	n, _ := resp.Body.Read(body)
	require.Equal(t, "replay-bytes", string(body[:n]))
}

func TestServer_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	// The mux normalizes dotted paths with a redirect, so exercise the
	// handler directly with an escaped traversal attempt.
	srv, err := New(t.TempDir())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/replays/..%2Fsecret", nil)
	srv.handleFile(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_PushesReplayAddedEvents(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	srv := startTestServer(t, dir)

	wsURL := strings.Replace(srv.URL(), "http://", "ws://", 1) + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Act: drop a new replay into the watched directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.hlt"), []byte("x"), 0644))

	// Assert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "replay_added", event.Type)
	require.Equal(t, "fresh.hlt", event.Name)
	require.Equal(t, 1, srv.ReplaysSeen())
}

func TestNew_RequiresExistingDirectory(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "replay directory")
}
