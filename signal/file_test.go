package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/VimalKMGithub/orgvclient/internal/statefile"
)

func TestFileSignalAnnounceToOtherStore(t *testing.T) {
	dir := t.TempDir()

	announceStore, err := statefile.Open(dir)
	require.NoError(t, err)
	defer announceStore.Close()
	listenStore, err := statefile.Open(dir)
	require.NoError(t, err)
	defer listenStore.Close()

	announcer := NewFileSignal(announceStore, "logout", 5*time.Millisecond)
	listener := NewFileSignal(listenStore, "logout", 5*time.Millisecond)
	defer announcer.Close()
	defer listener.Close()

	events, err := listener.Listen(context.Background())
	require.NoError(t, err)

	sent := Event{Kind: KindLogout, Origin: "instance-a", IssuedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, announcer.Announce(context.Background(), sent))

	select {
	case got := <-events:
		require.Equal(t, KindLogout, got.Kind)
		require.Equal(t, "instance-a", got.Origin)
		require.Equal(t, sent.IssuedAt, got.IssuedAt)
	case <-time.After(5 * time.Second):
		t.Fatal("no event observed")
	}
}

func TestFileSignalIgnoresNonLogoutEvents(t *testing.T) {
	store, err := statefile.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	fs := NewFileSignal(store, "logout", 5*time.Millisecond)
	defer fs.Close()

	require.NoError(t, fs.Announce(context.Background(), Event{Kind: KindSessionExpired, Origin: "x"}))
	_, ok := store.Get("logout")
	require.False(t, ok, "session-expired must not be written to the shared file")
}

func TestFileSignalLegacyBareValue(t *testing.T) {
	dir := t.TempDir()
	writerStore, err := statefile.Open(dir)
	require.NoError(t, err)
	defer writerStore.Close()
	listenStore, err := statefile.Open(dir)
	require.NoError(t, err)
	defer listenStore.Close()

	listener := NewFileSignal(listenStore, "logout", 5*time.Millisecond)
	defer listener.Close()
	events, err := listener.Listen(context.Background())
	require.NoError(t, err)

	// Older writers stored a bare timestamp; it still counts as a logout.
	require.NoError(t, writerStore.Set("logout", "1724932800000"))

	select {
	case got := <-events:
		require.Equal(t, KindLogout, got.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no event observed")
	}
}

func TestFileSignalListenStopsOnCancel(t *testing.T) {
	store, err := statefile.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	fs := NewFileSignal(store, "logout", 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := fs.Listen(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-events:
		require.False(t, open, "channel should close after cancel")
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close")
	}
}
