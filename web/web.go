// Package web provides an HTTP server for editing proposals in the browser.
//
// Every visitor gets an isolated proposal session identified by a cookie.
// The server exposes a JSON API to edit items and metadata, import item
// spreadsheets, download templates, preview the summary and download the
// generated PDF. The issuer profile is shared by all sessions and can be
// reloaded from disk while the server runs.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/proposta/issuer"
	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/telemetry"
)

// SessionTTL is how long an idle session is kept in memory.
const SessionTTL = 2 * time.Hour

type Server struct {
	Port         int
	Host         string
	WatchEnabled bool
	Logger       *slog.Logger

	// RenderOptions are applied to every session's renderer.
	RenderOptions []render.Option

	issuerFile string
	issuer     atomic.Pointer[issuer.Profile]

	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time

	// SSE clients for broadcasting issuer reloads
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// New creates a server. An empty issuerFile uses the built-in profile.
func New(port int, issuerFile string) *Server {
	s := &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Logger:     slog.Default(),
		issuerFile: issuerFile,
		sessions:   make(map[string]*entry),
		now:        time.Now,
		sseClients: make(map[chan string]struct{}),
	}
	profile := issuer.Default()
	s.issuer.Store(&profile)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))

	if s.issuerFile != "" {
		loadTimer := timer.Child(fmt.Sprintf("web.load_issuer %s", filepath.Base(s.issuerFile)))
		err := s.reloadIssuer()
		loadTimer.End()
		if err != nil {
			timer.End()
			return fmt.Errorf("failed to load issuer profile: %w", err)
		}

		if s.WatchEnabled {
			if err := s.startWatcher(ctx); err != nil {
				timer.End()
				return fmt.Errorf("failed to start file watcher: %w", err)
			}
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()
	timer.End()

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("listening", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/proposal", s.withSession(s.handleGetProposal))
	mux.HandleFunc("POST /api/items", s.withSession(s.handleAddItem))
	mux.HandleFunc("PUT /api/items", s.withSession(s.handlePutItems))
	mux.HandleFunc("PATCH /api/items/{id}", s.withSession(s.handlePatchItem))
	mux.HandleFunc("DELETE /api/items/last", s.withSession(s.handleRemoveLast))
	mux.HandleFunc("POST /api/clear", s.withSession(s.handleClear))
	mux.HandleFunc("PUT /api/metadata", s.withSession(s.handlePutMetadata))
	mux.HandleFunc("POST /api/import", s.withSession(s.handleImport))
	mux.HandleFunc("GET /api/summary", s.withSession(s.handleSummary))
	mux.HandleFunc("GET /api/document", s.withSession(s.handleDocument))
	mux.HandleFunc("GET /api/template/{format}", s.handleTemplate)
	mux.HandleFunc("GET /api/issuer", s.handleGetIssuer)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	s.mountAssets(mux)

	return mux
}

// currentIssuer returns the shared issuer profile.
func (s *Server) currentIssuer() issuer.Profile {
	return *s.issuer.Load()
}

// reloadIssuer loads the issuer profile from disk. A profile that fails to
// load or validate leaves the previous one in place.
func (s *Server) reloadIssuer() error {
	profile, err := issuer.Load(s.issuerFile)
	if err != nil {
		return err
	}
	s.issuer.Store(&profile)
	return nil
}

// startWatcher watches the issuer profile and reloads it on change.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(s.issuerFile); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.issuerFile, err)
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove/Rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.Logger.Warn("file watcher error", "error", err)
		}
	}
}

// handleFileChange reloads the issuer profile and notifies clients.
func (s *Server) handleFileChange(watcher *fsnotify.Watcher) {
	if err := s.reloadIssuer(); err != nil {
		s.Logger.Error("failed to reload issuer profile", "file", s.issuerFile, "error", err)
		return
	}

	// Re-add to catch files replaced by rename.
	if err := watcher.Add(s.issuerFile); err != nil {
		s.Logger.Warn("failed to watch issuer profile", "file", s.issuerFile, "error", err)
	}

	s.Logger.Info("issuer profile reloaded", "file", s.issuerFile)
	s.broadcast("issuer")
}

// handleSSE handles Server-Sent Events connections for issuer reloads.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
