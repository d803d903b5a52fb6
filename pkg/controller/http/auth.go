package http

import (
	"net/http"
	"strings"

	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

type AuthUseCase = usecase.AuthUseCaseInterface

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// authMiddleware resolves the user of the request or answers 401.
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil {
				writeError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			token := sessionToken(r)
			if token == "" && !authUC.IsNoAuthn() {
				writeError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := authUC.Authenticate(r.Context(), token)
			if err != nil {
				logging.From(r.Context()).Info("authentication failed", "error", err.Error())
				writeError(w, r, http.StatusUnauthorized, "Invalid authentication token")
				return
			}

			ctx := model.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken reads the session cookie, falling back to a Bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
