package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/session"
)

// CookieName identifies the visitor's proposal session.
const CookieName = "proposta_session"

type entry struct {
	mu       sync.Mutex
	session  *session.Session
	lastSeen time.Time
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the visitor's session, creating one when the cookie
// is missing or stale, and serializes requests within that session.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := s.lookup(w, r)
		e.mu.Lock()
		defer e.mu.Unlock()
		next(w, r, e.session)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *entry {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if cookie, err := r.Cookie(CookieName); err == nil {
		if e, ok := s.sessions[cookie.Value]; ok {
			e.lastSeen = now
			return e
		}
	}

	s.prune(now)

	id := uuid.NewString()
	logger := s.Logger.With("session", id[:8])
	opts := append([]render.Option{render.WithLogger(logger), render.WithClock(s.now)}, s.RenderOptions...)
	e := &entry{
		session: session.New(
			session.WithIssuerSource(s.currentIssuer),
			session.WithLogger(logger),
			session.WithClock(s.now),
			session.WithRenderer(render.New(opts...)),
		),
		lastSeen: now,
	}
	s.sessions[id] = e

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	logger.Debug("session started")

	return e
}

// prune drops idle sessions. Caller must hold s.mu.
func (s *Server) prune(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > SessionTTL {
			delete(s.sessions, id)
		}
	}
}
