package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartSessionHeader lets non-browser clients carry the cart session without cookies.
const CartSessionHeader = "X-Cart-Session"

// CartSession resolves the shopper's cart session from the cookie (or header)
// and mints a new one when absent or malformed. The id is echoed back on every
// response so clients can persist it.
func CartSession(cookieName string, ttl time.Duration, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := readCartSession(r, cookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(CartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readCartSession(r *http.Request, cookieName string) string {
	candidates := []string{strings.TrimSpace(r.Header.Get(CartSessionHeader))}
	if cookie, err := r.Cookie(cookieName); err == nil {
		candidates = append(candidates, strings.TrimSpace(cookie.Value))
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if id, err := uuid.Parse(candidate); err == nil {
			return id.String()
		}
	}
	return ""
}
