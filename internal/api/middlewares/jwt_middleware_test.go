package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected(t *testing.T, m *TokenManager) http.Handler {
	t.Helper()
	return m.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		_, _ = w.Write([]byte(id))
	}))
}

func TestJWTMiddleware(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected(t, m).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && rec.Body.String() != "user-1" {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	token, _ := NewTokenManager("one", time.Hour).Issue("u")
	if _, err := NewTokenManager("two", time.Hour).Parse(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := m.Issue("u")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expiry error")
	}
}
