package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("test-secret", "bizsites", time.Hour)
	token, exp, err := iss.Issue(42, RoleOwner)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry")
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("unexpected user id %d (%v)", id, err)
	}
	if claims.Role != RoleOwner || claims.IsAdmin() {
		t.Fatalf("unexpected role %q", claims.Role)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("test-secret", "bizsites", time.Hour)
	token, _, err := iss.Issue(1, RoleAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other := NewIssuer("other-secret", "bizsites", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewIssuer("test-secret", "bizsites", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(1, RoleAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := iss.Verify(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := iss.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	iss := NewIssuer("test-secret", "", time.Hour)
	ownerToken, _, _ := iss.Issue(7, RoleOwner)
	adminToken, _, _ := iss.Issue(8, RoleAdmin)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Subject == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(iss)(RequireRole(RoleAdmin)(final))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"owner forbidden", "Bearer " + ownerToken, http.StatusForbidden},
		{"admin allowed", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rw.Code)
		}
	}
}
