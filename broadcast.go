package orgvclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/VimalKMGithub/orgvclient/signal"
)

// Broadcast topics.
const (
	TopicSessionExpired = "orgv.session.expired"
	TopicLogout         = "orgv.session.logout"
)

// Broadcaster fans session events out to every consumer of session state.
// In-process delivery goes through a go-channel pub/sub; cross-instance
// delivery goes through the configured signal transports. Events are
// at-least-once: consumers must be idempotent (local logout applied twice is
// a no-op).
//
// Session-expired is deliberately in-process only. It reflects this
// instance's refresh failure; other instances hold their own refresh
// credential and discover expiry on their own.
type Broadcaster struct {
	pubsub   *gochannel.GoChannel
	signals  []signal.Transport
	origin   string
	logger   *slog.Logger
	issuedAt func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

func newBroadcaster(signals []signal.Transport, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			newWatermillLogger(logger),
		),
		signals:  signals,
		origin:   watermill.NewUUID(),
		logger:   logger,
		issuedAt: time.Now,
	}
}

// start begins relaying events from the signal transports into the local
// pub/sub. Echoes of this instance's own announcements are discarded by
// origin.
func (b *Broadcaster) start(ctx context.Context) error {
	ctx, b.cancel = context.WithCancel(ctx)
	for _, transport := range b.signals {
		events, err := transport.Listen(ctx)
		if err != nil {
			b.cancel()
			return err
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for ev := range events {
				if ev.Origin == b.origin {
					continue
				}
				switch ev.Kind {
				case signal.KindLogout:
					b.logger.Debug("received external logout signal", "origin", ev.Origin)
					b.publishLocal(TopicLogout)
				case signal.KindSessionExpired:
					b.publishLocal(TopicSessionExpired)
				}
			}
		}()
	}
	return nil
}

func (b *Broadcaster) publishLocal(topic string) {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		b.logger.Warn("publishing session event", "topic", topic, "error", err)
	}
}

// SignalSessionExpired notifies this instance's consumers that the session
// is gone and re-authentication is required.
func (b *Broadcaster) SignalSessionExpired() {
	b.publishLocal(TopicSessionExpired)
}

// SignalLogout notifies this instance's consumers and announces the logout
// to every other instance of the profile. Announce failures are logged, not
// returned: the local logout must not be blocked by a broken transport.
func (b *Broadcaster) SignalLogout(ctx context.Context) {
	b.publishLocal(TopicLogout)
	ev := signal.Event{
		Kind:     signal.KindLogout,
		Origin:   b.origin,
		IssuedAt: b.issuedAt(),
	}
	for _, transport := range b.signals {
		if err := transport.Announce(ctx, ev); err != nil {
			b.logger.Warn("announcing logout", "error", err)
		}
	}
}

// subscribe registers fn to run for every event on topic until the
// broadcaster closes.
func (b *Broadcaster) subscribe(topic string, fn func()) error {
	messages, err := b.pubsub.Subscribe(context.Background(), topic)
	if err != nil {
		return err
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			fn()
			msg.Ack()
		}
	}()
	return nil
}

// OnSessionExpired registers fn to run whenever the session expires.
func (b *Broadcaster) OnSessionExpired(fn func()) error {
	return b.subscribe(TopicSessionExpired, fn)
}

// OnLogout registers fn to run whenever a logout is signalled, locally or
// from another instance.
func (b *Broadcaster) OnLogout(fn func()) error {
	return b.subscribe(TopicLogout, fn)
}

// Close stops the relays, closes the signal transports and the local
// pub/sub, and waits for handler goroutines to drain.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		for _, transport := range b.signals {
			if err := transport.Close(); err != nil {
				b.logger.Warn("closing signal transport", "error", err)
			}
		}
		_ = b.pubsub.Close()
		b.wg.Wait()
	})
}
