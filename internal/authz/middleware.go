package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-shop/meridian-backoffice/internal/shared"
)

// SubjectLoader resolves the session's user id into an authorization subject.
type SubjectLoader interface {
	SubjectByID(ctx context.Context, id string) (Subject, error)
}

// Middleware wires permission checks into HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Loader   SubjectLoader
	Logger   *slog.Logger
}

type subjectContextKey struct{}

// ContextWithSubject stores the authenticated subject in context.
func ContextWithSubject(ctx context.Context, sub Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, sub)
}

// SubjectFromContext extracts the subject placed by the middleware, nil when
// unauthenticated.
func SubjectFromContext(ctx context.Context) Subject {
	sub, _ := ctx.Value(subjectContextKey{}).(Subject)
	return sub
}

// RequireModule permits the request only when the current user holds the
// given module/action capability. Denials are silent 403s; missing sessions
// or load failures deny as well.
func (m Middleware) RequireModule(module string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := m.loadSubject(r)
			if !ok || !m.Resolver.Can(sub, module, action) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), sub)))
		})
	}
}

// RequireManager permits the request only for manager roles. Role identity
// only; the module matrix is not consulted.
func (m Middleware) RequireManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := m.loadSubject(r)
			if !ok || !m.Resolver.IsManager(sub) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), sub)))
		})
	}
}

func (m Middleware) loadSubject(r *http.Request) (Subject, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	id := strings.TrimSpace(sess.User())
	if id == "" {
		return nil, false
	}
	sub, err := m.Loader.SubjectByID(r.Context(), id)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz load subject", slog.String("user_id", id), slog.Any("error", err))
		}
		return nil, false
	}
	return sub, true
}
