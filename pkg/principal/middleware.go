package principal

import (
	"errors"
	"net/http"
)

// IdentityVerifier turns a request credential into a verified identity.
// Implementations own token parsing and signature checks; this package
// trusts whatever tenant id they hand back.
type IdentityVerifier interface {
	Verify(r *http.Request) (Identity, error)
}

// ErrorHandler handles errors that occur during identity verification.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware creates HTTP middleware that verifies the request credential
// and stores the resulting principal in the request context.
func Middleware(verifier IdentityVerifier, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if r.URL.Path == skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			identity, err := verifier.Verify(r)
			if err != nil {
				cfg.errorHandler(w, r, errors.Join(ErrUnauthenticated, err))
				return
			}

			ctx := WithPrincipal(r.Context(), FromIdentity(identity))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal creates middleware that rejects requests without a
// principal in context. Useful for routes behind optional authentication.
func RequirePrincipal(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := FromContext(r.Context()); !ok || p == nil {
				errorHandler(w, r, ErrNoPrincipal)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNoPrincipal):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
