package orgvclient

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/VimalKMGithub/orgvclient/internal/statefile"
)

const deviceIDKey = "deviceId"

// deviceIdentity owns the stable per-profile device identifier. The first
// call generates a random UUID and persists it; every later call, across
// restarts, returns the same value. Identity resolution must never fail: a
// broken state store degrades to an in-memory identifier that lives for the
// process lifetime.
type deviceIdentity struct {
	store  *statefile.Store
	logger *slog.Logger

	once sync.Once
	id   string
}

func newDeviceIdentity(store *statefile.Store, logger *slog.Logger) *deviceIdentity {
	return &deviceIdentity{store: store, logger: logger}
}

// ID returns the device identifier, creating and persisting it on first use.
func (d *deviceIdentity) ID() string {
	d.once.Do(func() {
		if d.store != nil {
			if v, ok := d.store.Get(deviceIDKey); ok && v != "" {
				d.id = v
				return
			}
		}
		d.id = uuid.NewString()
		if d.store == nil {
			return
		}
		if err := d.store.Set(deviceIDKey, d.id); err != nil {
			d.logger.Warn("device id not persisted, using in-memory value", "err", err)
		}
	})
	return d.id
}
