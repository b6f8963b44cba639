package orgvclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLogoutReachesOtherInstance(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathLogout, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{Message: "Logged out"})
	})

	server := httptest.NewServer(g.mux)
	defer server.Close()

	// Two client instances share one profile directory, like two windows of
	// the same console.
	dir := t.TempDir()
	build := func() *Client {
		cfg := defaultConfig()
		cfg.HTTP.BaseURL = server.URL
		cfg.Challenge.TickInterval = 0
		cfg.Broadcast.PollInterval = 10 * time.Millisecond
		client, err := New().
			WithConfig(cfg).
			WithStateDir(dir).
			WithNotifier(&recordingNotifier{}).
			WithLogger(testLogger()).
			Build(context.Background())
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		t.Cleanup(func() { client.Close() })
		return client
	}

	first := build()
	second := build()
	for _, c := range []*Client{first, second} {
		if err := c.Session().CheckAuth(context.Background()); err != nil {
			t.Fatalf("CheckAuth failed: %v", err)
		}
	}

	if err := first.Session().Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if first.Session().IsAuthenticated() {
		t.Fatal("expected the logging-out instance cleared immediately")
	}
	waitFor(t, "second instance to observe the logout", func() bool {
		return !second.Session().IsAuthenticated()
	})
}

func TestOwnLogoutSignalNotDoubleHandled(t *testing.T) {
	g := newGateway()
	g.handle(pathLogout, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, MessageResponse{})
	})
	client, _ := newTestClient(t, g)

	var handled atomic.Int32
	if err := client.Broadcaster().OnLogout(func() { handled.Add(1) }); err != nil {
		t.Fatalf("OnLogout failed: %v", err)
	}

	client.Broadcaster().SignalLogout(context.Background())
	waitFor(t, "local logout delivery", func() bool {
		return handled.Load() >= 1
	})

	// Give the file watcher time to see the write; the echo must be
	// discarded by origin, not delivered again.
	time.Sleep(100 * time.Millisecond)
	if got := handled.Load(); got != 1 {
		t.Fatalf("logout handled %d times, want 1", got)
	}
}

func TestRefreshFailureBroadcastsSessionExpired(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	client, sink := newTestClient(t, g)

	if err := client.Session().CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}
	if !client.Session().IsAuthenticated() {
		t.Fatal("expected authenticated session")
	}

	// The server drops the session; the next call 401s, the refresh call
	// fails (default gateway refresh handler rejects), and the expiry fans
	// out to the session state.
	g.setAuthenticated(false)
	g.handle(pathActiveDevices, func(w http.ResponseWriter, r *http.Request) {
		writeJSONStatus(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
	})
	if _, err := client.ActiveDevices(context.Background()); !IsSessionExpired(err) {
		t.Fatalf("expected session-expired error, got %v", err)
	}

	waitFor(t, "session-expired notice", func() bool {
		return sink.contains("Your session has expired. Please log in again.")
	})
	waitFor(t, "session cleared", func() bool {
		return !client.Session().IsAuthenticated()
	})
}
