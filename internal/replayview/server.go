// Package replayview serves a replay directory over HTTP for local review.
// It exposes a JSON listing, the replay files themselves, and a WebSocket
// that pushes an event whenever the engine drops a new replay into the
// watched directory.
package replayview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/vk/matchgridgo/internal/ctxlog"
)

// Event is pushed to connected WebSocket clients when the watched
// directory changes.
type Event struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ReplayInfo describes one file in the replay directory listing.
type ReplayInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Server watches a replay directory and serves it over HTTP.
type Server struct {
	dir      string
	listener net.Listener
	httpSrv  *http.Server
	watcher  *fsnotify.Watcher
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	seen    int

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a server for the given replay directory. The directory must
// already exist; creating it is the engine's job.
func New(dir string) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("replay directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("replay path %q is not a directory", dir)
	}
	return &Server{
		dir: dir,
		upgrader: websocket.Upgrader{
			// The server binds to localhost for a single user; any page may
			// connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start binds an ephemeral localhost port, begins watching the directory,
// and serves until Close is called or the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("dir", s.dir)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		_ = listener.Close()
		return fmt.Errorf("watch %q: %w", s.dir, err)
	}
	s.watcher = watcher

	mux := http.NewServeMux()
	mux.HandleFunc("/replays", s.handleList)
	mux.HandleFunc("/replays/", s.handleFile)
	mux.HandleFunc("/events", s.handleEvents)
	s.httpSrv = &http.Server{Handler: cors.Default().Handler(mux)}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Replay server failed.", "error", err)
		}
	}()
	go s.watchLoop(ctx)

	logger.Info("📺 Replay server listening", "url", s.URL())
	return nil
}

// URL returns the base address of the running server.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// ReplaysSeen reports how many new replay files landed while watching.
func (s *Server) ReplaysSeen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// Close stops the watcher, disconnects clients, and shuts the server down.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
		s.mu.Lock()
		for conn := range s.clients {
			_ = conn.Close()
		}
		s.clients = make(map[*websocket.Conn]struct{})
		s.mu.Unlock()
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if shutdownErr := s.httpSrv.Shutdown(ctx); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !isReplayFile(name) {
				continue
			}
			logger.Debug("New replay detected.", "name", name)
			s.broadcast(Event{Type: "replay_added", Name: name})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Replay watcher error.", "error", err)
		}
	}
}

func (s *Server) broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen++
	for conn := range s.clients {
		if err := conn.WriteJSON(event); err != nil {
			_ = conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	replays := make([]ReplayInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isReplayFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		replays = append(replays, ReplayInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	// Newest first: the replay someone wants is almost always the last one.
	sort.Slice(replays, func(i, j int) bool {
		return replays[i].ModTime.After(replays[j].ModTime)
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(replays)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/replays/")
	if name == "" || name != filepath.Base(name) {
		http.Error(w, "invalid replay name", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, name))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Drain the connection so pings and close frames are processed; the
	// server never expects client messages.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

// isReplayFile reports whether a file name looks like an engine artifact
// worth surfacing. Halite writes *.hlt replays and errorlog-*.log files.
func isReplayFile(name string) bool {
	switch filepath.Ext(name) {
	case ".hlt", ".log", ".json":
		return true
	}
	return false
}
