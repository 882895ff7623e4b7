package http

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domsession "example.com/storefront/internal/domain/session"
)

type ctxSessionKey struct{}

var errUnauthenticated = errors.New("unauthenticated")

type requestSession struct {
	ID    string
	State domsession.State
}

// sessionMiddleware resolves the visitor's session from the cookie, issuing
// a fresh ID when there is none or it is malformed.
func (a *API) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(a.cookie.Name); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sid = id.String()
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}
		http.SetCookie(w, &http.Cookie{
			Name:     a.cookie.Name,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(a.cookie.TTL / time.Second),
			HttpOnly: true,
			Secure:   a.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		st := a.loadState(r, sid)
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, &requestSession{ID: sid, State: st})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) loadState(r *http.Request, sid string) domsession.State {
	st, err := a.sessions.Load(r.Context(), sid)
	if err != nil {
		a.logger.Warn("load session", zap.String("session", sid), zap.Error(err))
		return domsession.State{}
	}
	return st
}

func sessionFrom(ctx context.Context) *requestSession {
	if s, ok := ctx.Value(ctxSessionKey{}).(*requestSession); ok {
		return s
	}
	return &requestSession{}
}

// requireAuth sends unauthenticated visitors to the login page.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).State.Authenticated {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireAuthJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).State.Authenticated {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// flash queues a toast for the next rendered page of the session.
func (a *API) flash(r *http.Request, t domsession.Toast) {
	sid := sessionFrom(r.Context()).ID
	st := a.loadState(r, sid)
	if err := a.sessions.Save(r.Context(), sid, st.WithToast(t)); err != nil {
		a.logger.Warn("save toast", zap.String("session", sid), zap.Error(err))
	}
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			a.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
