package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/domain"
	"github.com/mayvqt/StatusBot/internal/httpapi/middleware"
	"github.com/mayvqt/StatusBot/internal/store"
)

// Server is the read-only query surface over the status store. It never
// touches disk; the store is the single source of truth.
type Server struct {
	Logger       *zap.Logger
	Store        *store.Store
	PushInterval time.Duration // websocket snapshot cadence

	RequestsPerMin int
	Burst          int
}

func NewServer(l *zap.Logger, st *store.Store, rpm, burst int) *Server {
	return &Server{
		Logger:         l,
		Store:          st,
		PushInterval:   15 * time.Second,
		RequestsPerMin: rpm,
		Burst:          burst,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.RequestsPerMin, s.Burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleSnapshot)
	r.Get("/api/status/{name}", s.handleGetOne)
	r.Get("/api/stream", s.handleStream)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, snapshotMap(s.Store.Snapshot()))
}

func (s *Server) handleGetOne(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, ok := s.Store.Get(name)
	if !ok {
		http.Error(w, "unknown service", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(u.Host), strings.TrimSpace(r.Host))
	},
}

// handleStream pushes the full snapshot on connect and then on every push
// interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := s.pushSnapshot(conn); err != nil {
		return
	}

	t := time.NewTicker(s.PushInterval)
	defer t.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-t.C:
			if err := s.pushSnapshot(conn); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) pushSnapshot(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(snapshotMap(s.Store.Snapshot()))
}

func snapshotMap(snapshot []store.Status) map[string]domain.ServiceStatus {
	out := make(map[string]domain.ServiceStatus, len(snapshot))
	for _, entry := range snapshot {
		out[entry.Name] = entry.ServiceStatus
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
