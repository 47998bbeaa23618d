package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

const AccessTokenCookie = "accessToken"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

type contextKey string

const userContextKey contextKey = "auth_user"

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth accepts the access token from the accessToken cookie or an
// Authorization bearer header and puts the resolved user on the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeEnvelope(w, http.StatusUnauthorized, "Unauthorized request")
			return
		}

		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			message := "Invalid access token"
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				message = apiErr.Message
			}
			writeEnvelope(w, http.StatusUnauthorized, message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
