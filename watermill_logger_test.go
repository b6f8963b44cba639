package orgvclient

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestWatermillLoggerRoutesToSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := newWatermillLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.With(watermill.LogFields{"topic": "orgv.session.logout"}).
		Info("subscribed", watermill.LogFields{"consumer": "relay"})

	out := buf.String()
	for _, want := range []string{"subscribed", "topic=orgv.session.logout", "consumer=relay"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}
