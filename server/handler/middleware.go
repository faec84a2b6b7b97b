package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ahadchat/server/room"
)

// SessionCookie carries the session id.
const SessionCookie = "ahadchat_session"

type sessionKey struct{}

// AccessLog logs one line per request.
func AccessLog(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.Infow("handled",
				"method", r.Method,
				"url", r.URL.String(),
				"status", m.Code,
				"duration", m.Duration,
				"bytes", m.Written,
			)
		})
	}
}

// Recovery turns a panicking handler into a 500.
func Recovery(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorw("Panic in handler", "panic", rec, "url", r.URL.String())
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Sessions attaches the caller's session to the request context, creating
// one and setting the cookie on first contact.
func Sessions(manager *room.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(SessionCookie); err == nil {
				id = c.Value
			}

			sess := manager.GetOrCreate(id)
			if sess.ID != id {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *room.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*room.Session)
	return sess
}
