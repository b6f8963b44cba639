package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/VimalKMGithub/orgvclient/internal/statefile"
)

// FileSignal is the same-machine transport: announcements are writes to the
// shared profile state file, observation is polling it. Only logout events
// travel this way; session expiry is an in-process concern.
type FileSignal struct {
	store    *statefile.Store
	key      string
	interval time.Duration
	cancel   context.CancelFunc
}

// NewFileSignal builds a transport over store, writing logout announcements
// under key and polling for foreign writes at interval.
func NewFileSignal(store *statefile.Store, key string, interval time.Duration) *FileSignal {
	if key == "" {
		key = "logout"
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &FileSignal{store: store, key: key, interval: interval}
}

func (f *FileSignal) Announce(_ context.Context, ev Event) error {
	if ev.Kind != KindLogout {
		return nil
	}
	encoded, err := ev.encode()
	if err != nil {
		return fmt.Errorf("signal: encode logout event: %w", err)
	}
	if err := f.store.Set(f.key, encoded); err != nil {
		return fmt.Errorf("signal: write logout key: %w", err)
	}
	return nil
}

func (f *FileSignal) Listen(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	values := f.store.Watch(ctx, f.key, f.interval)
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		for raw := range values {
			ev, err := decodeEvent([]byte(raw))
			if err != nil {
				// Older writers stored a bare timestamp under this key.
				ev = Event{Kind: KindLogout, IssuedAt: time.Now()}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *FileSignal) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}
