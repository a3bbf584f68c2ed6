package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"toddlerclock/internal/battery"
	"toddlerclock/internal/config"
	"toddlerclock/internal/ics"
	appLog "toddlerclock/internal/log"
	"toddlerclock/internal/schedule"
)

const batteryCacheTTL = 30 * time.Second

// Server exposes the clock's schedule and state over HTTP.
//
// The schedule must be fully built before the server starts; handlers only
// read it.
type Server struct {
	cfg         *config.Config
	sched       *schedule.Schedule
	battery     battery.Reader
	previewPath string
	now         func() time.Time
	mux         *http.ServeMux

	// In-memory cache for battery status, so API polling does not hit I2C
	// on every request.
	batteryMu    sync.RWMutex
	batteryCache *batteryCache
}

// NewServer constructs a new Server. bat may be nil when no battery gauge
// is configured.
func NewServer(cfg *config.Config, sched *schedule.Schedule, bat battery.Reader) *Server {
	s := &Server{
		cfg:         cfg,
		sched:       sched,
		battery:     bat,
		previewPath: cfg.Display.PreviewPath,
		now:         time.Now,
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password means disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="toddlerclock", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/now", s.handleNow)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/battery", s.handleBattery)
	s.mux.HandleFunc("GET /schedule.ics", s.handleICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// nowResponse is the JSON response shape for /api/now.
type nowResponse struct {
	Time    string `json:"time"`
	Minute  int    `json:"minute"`
	Message string `json:"message"`
}

// handleNow returns what the clock is showing right now. The message is
// looked up for the same instant as the reported time.
func (s *Server) handleNow(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, nowResponse{
		Time:    now.Format("15:04"),
		Minute:  now.Hour()*60 + now.Minute(),
		Message: s.sched.At(now),
	})
}

// spanDTO is a JSON-friendly view of a schedule span.
type spanDTO struct {
	Start       string `json:"start"`
	Stop        string `json:"stop"`
	StartMinute int    `json:"start_minute"`
	StopMinute  int    `json:"stop_minute"`
	Description string `json:"description"`
}

// handleSchedule returns the resolved day as ordered spans.
func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	spans := s.sched.Spans()
	dtos := make([]spanDTO, 0, len(spans))
	for _, sp := range spans {
		dtos = append(dtos, spanDTO{
			Start:       schedule.FormatMinute(sp.Start),
			Stop:        schedule.FormatMinute(sp.Stop),
			StartMinute: sp.Start,
			StopMinute:  sp.Stop,
			Description: sp.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"spans": dtos})
}

// handleICS serves the schedule as a subscribable daily calendar.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	body, err := ics.Export(s.sched.Spans(), s.now(), time.Local)
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export schedule")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// handlePreview serves the last rendered frame from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// http.ServeFile maps missing files to 404 and other errors to 500.
	http.ServeFile(w, r, s.previewPath)
}

// batteryCache holds the last known battery status and its timestamp.
type batteryCache struct {
	status    battery.Status
	updatedAt time.Time
}

// handleBattery exposes the battery status, cached for batteryCacheTTL.
func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	if s.battery == nil {
		writeError(w, http.StatusNotFound, "battery gauge not configured")
		return
	}

	now := time.Now()
	s.batteryMu.RLock()
	bc := s.batteryCache
	s.batteryMu.RUnlock()
	if bc != nil && now.Sub(bc.updatedAt) < batteryCacheTTL {
		writeJSON(w, http.StatusOK, bc.status)
		return
	}

	status, err := s.battery.Read(r.Context())
	if err != nil {
		appLog.Error("battery read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read battery")
		return
	}

	s.batteryMu.Lock()
	s.batteryCache = &batteryCache{status: status, updatedAt: now}
	s.batteryMu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
