package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartSessionHandler(captured *string) http.Handler {
	return CartSession("sf_cart", time.Hour, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = CartSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCartSessionMintsCookieWhenMissing(t *testing.T) {
	var got string
	resp := httptest.NewRecorder()
	cartSessionHandler(&got).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	_, err := uuid.Parse(got)
	require.NoError(t, err)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sf_cart", cookies[0].Name)
	assert.Equal(t, got, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, got, resp.Header().Get(CartSessionHeader))
}

func TestCartSessionReusesCookie(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_cart", Value: existing})

	var got string
	resp := httptest.NewRecorder()
	cartSessionHandler(&got).ServeHTTP(resp, req)

	assert.Equal(t, existing, got)
	assert.Empty(t, resp.Result().Cookies())
}

func TestCartSessionPrefersHeader(t *testing.T) {
	header := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, header)
	req.AddCookie(&http.Cookie{Name: "sf_cart", Value: uuid.NewString()})

	var got string
	cartSessionHandler(&got).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, header, got)
}

func TestCartSessionReplacesMalformedValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_cart", Value: "not-a-uuid"})

	var got string
	resp := httptest.NewRecorder()
	cartSessionHandler(&got).ServeHTTP(resp, req)

	assert.NotEqual(t, "not-a-uuid", got)
	require.Len(t, resp.Result().Cookies(), 1)
}
