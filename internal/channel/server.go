package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/state"
)

const (
	maxStateBytes = 8 << 20
	writeWait     = 5 * time.Second
	pingPeriod    = 30 * time.Second
	pongWait      = pingPeriod + 10*time.Second
)

// Server exposes a host over HTTP on a Unix socket.
type Server struct {
	host     *host.Host
	logger   *logrus.Entry
	server   *http.Server
	upgrader websocket.Upgrader
	onQuit   func()
}

// NewServer returns a server for h. onQuit, if set, runs after a client
// requested quit.
func NewServer(h *host.Host, onQuit func()) *Server {
	return &Server{
		host:   h,
		logger: logging.NewLogger("channel"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		onQuit: onQuit,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/state", s.handleLoadState)
	mux.HandleFunc("PUT /api/state", s.handleSaveState)
	mux.HandleFunc("PUT /api/window/always-on-top", s.handleSetAlwaysOnTop)
	mux.HandleFunc("POST /api/window/always-on-top/toggle", s.handleToggleAlwaysOnTop)
	mux.HandleFunc("POST /api/window/minimize", s.handleMinimize)
	mux.HandleFunc("PUT /api/window/bounds", s.handleResize)
	mux.HandleFunc("POST /api/window/blur", s.handleBlur)
	mux.HandleFunc("POST /api/window/close", s.handleClose)
	mux.HandleFunc("POST /api/window/show", s.handleActivate)
	mux.HandleFunc("POST /api/quit", s.handleQuit)
	mux.HandleFunc("PUT /api/startup", s.handleSetStartup)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	return mux
}

// ListenAndServe serves on socketPath until Shutdown. A stale socket file is
// removed first.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.WithField("socket", socketPath).Info("host listening")
	err = s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down host server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleLoadState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.LoadState(r.Context())
	if err != nil {
		// The default snapshot is still usable; only persisting it failed.
		s.logger.WithError(err).Warn("load state")
	}
	body, encErr := state.Encode(snap)
	if encErr != nil {
		s.writeError(w, http.StatusInternalServerError, encErr)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleSaveState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	snap, err := state.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.host.SaveState(r.Context(), snap); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAlwaysOnTop(w http.ResponseWriter, r *http.Request) {
	var req flagPayload
	if !s.decode(w, r, &req) {
		return
	}
	actual, err := s.host.SetAlwaysOnTop(r.Context(), req.Value)
	if err != nil {
		s.writeHostError(w, err)
		return
	}
	s.writeJSON(w, flagPayload{Value: actual})
}

func (s *Server) handleToggleAlwaysOnTop(w http.ResponseWriter, r *http.Request) {
	actual, err := s.host.ToggleAlwaysOnTop(r.Context())
	if err != nil {
		s.writeHostError(w, err)
		return
	}
	s.writeJSON(w, flagPayload{Value: actual})
}

func (s *Server) handleMinimize(w http.ResponseWriter, r *http.Request) {
	if err := s.host.MinimizeToTray(r.Context()); err != nil {
		s.writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var b host.Bounds
	if !s.decode(w, r, &b) {
		return
	}
	if err := s.host.Resize(r.Context(), b); err != nil {
		s.writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBlur(w http.ResponseWriter, r *http.Request) {
	s.host.Blur()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, closePayload{Closed: s.host.RequestClose()})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Activate(r.Context()); err != nil {
		s.writeHostError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.host.Quit()
	w.WriteHeader(http.StatusNoContent)
	if s.onQuit != nil {
		go s.onQuit()
	}
}

func (s *Server) handleSetStartup(w http.ResponseWriter, r *http.Request) {
	var req flagPayload
	if !s.decode(w, r, &req) {
		return
	}
	stored, err := s.host.SetLaunchOnStartup(r.Context(), req.Value)
	if err != nil {
		s.writeHostError(w, err)
		return
	}
	s.writeJSON(w, flagPayload{Value: stored})
}

// handleEvents streams host notifications as JSON text frames.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := s.host.Subscribe()
	defer cancel()

	// The read loop only watches for the client going away.
	gone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("event subscriber connected")
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case n, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "host stopped"))
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				s.logger.WithError(err).Debug("event write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			s.logger.Debug("event subscriber disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(dest); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Debug("write response")
	}
}

func (s *Server) writeHostError(w http.ResponseWriter, err error) {
	if errors.Is(err, host.ErrNoWindow) {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.logger.WithError(err).WithField("status", code).Warn("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorPayload{Error: err.Error()})
}
