package orgvclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessionInfoFromAccessCookie(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	issued := time.Now().Truncate(time.Second)
	expires := issued.Add(5 * time.Minute)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iat": issued.Unix(),
		"exp": expires.Unix(),
	})
	signed, err := token.SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	client.jar.SetCookies(client.baseURL, []*http.Cookie{
		{Name: client.config.HTTP.AccessCookie, Value: signed, Path: "/"},
	})

	info, err := client.SessionInfo()
	if err != nil {
		t.Fatalf("SessionInfo failed: %v", err)
	}
	if info.Subject != "alice" {
		t.Fatalf("subject = %q, want alice", info.Subject)
	}
	if !info.IssuedAt.Equal(issued) {
		t.Fatalf("issued at = %v, want %v", info.IssuedAt, issued)
	}
	if !info.ExpiresAt.Equal(expires) {
		t.Fatalf("expires at = %v, want %v", info.ExpiresAt, expires)
	}
	if info.Remaining() <= 0 {
		t.Fatal("expected positive remaining lifetime")
	}
}

func TestSessionInfoWithoutCookie(t *testing.T) {
	g := newGateway()
	client, _ := newTestClient(t, g)

	if _, err := client.SessionInfo(); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
