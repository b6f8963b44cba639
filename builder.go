package orgvclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/VimalKMGithub/orgvclient/internal/statefile"
	"github.com/VimalKMGithub/orgvclient/signal"
)

// Builder assembles a [Client]. Builder instances are intended to be
// configured during initialization and then consumed by a single Build call.
type Builder struct {
	config    Config
	transport http.RoundTripper
	notifier  Notifier
	signals   []signal.Transport
	redis     *redis.Client
	logger    *slog.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the API gateway base URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.HTTP.BaseURL = baseURL
	return b
}

// WithStateDir sets the directory holding the profile's durable state
// (device identifier, logout signal key).
func (b *Builder) WithStateDir(dir string) *Builder {
	b.config.Device.StateDir = dir
	return b
}

// WithHTTPTransport replaces the base transport the interceptor chain wraps.
// Tests use this to substitute a fake server.
func (b *Builder) WithHTTPTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithNotifier routes user-visible notices to sink instead of the log.
func (b *Builder) WithNotifier(sink Notifier) *Builder {
	b.notifier = sink
	return b
}

// WithSignals adds cross-instance signal transports beyond the built-in
// state-file transport.
func (b *Builder) WithSignals(transports ...signal.Transport) *Builder {
	b.signals = append(b.signals, transports...)
	return b
}

// WithRedis adds the Redis stream signal transport over client, for
// deployments where instances of a profile span machines.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration, wires the interceptor chain and the
// broadcaster, and returns a ready Client. The returned Client owns the
// state store and signal transports; release them with Close.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(cfg.HTTP.BaseURL)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	stateDir := cfg.Device.StateDir
	if stateDir == "" {
		stateDir, err = defaultStateDir()
		if err != nil {
			return nil, err
		}
	}
	store, err := statefile.Open(stateDir)
	if err != nil {
		// A broken profile directory must not block requests. The device
		// identifier degrades to an in-memory value and the file logout
		// signal is lost for this process.
		logger.Warn("state store unavailable, continuing without persistence", "dir", stateDir, "err", err)
		store = nil
	}

	jar, err := newCookieJar()
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	signals := b.signals
	if store != nil {
		signals = append([]signal.Transport{
			signal.NewFileSignal(store, cfg.Broadcast.LogoutKey, cfg.Broadcast.PollInterval),
		}, b.signals...)
	}
	if b.redis != nil {
		redisSignal, err := signal.NewRedisSignal(b.redis, newWatermillLogger(logger))
		if err != nil {
			if store != nil {
				store.Close()
			}
			return nil, err
		}
		signals = append(signals, redisSignal)
	}

	c := &Client{
		config:  cfg,
		baseURL: baseURL,
		jar:     jar,
		logger:  logger,
		store:   store,
	}
	c.device = newDeviceIdentity(store, logger)
	c.notices = newNoticeCenter(b.notifier, cfg.Notices.DedupWindow, logger)
	c.broadcaster = newBroadcaster(signals, logger)

	base := b.transport
	if base == nil {
		base = http.DefaultTransport
	}
	authenticator := &requestAuthenticator{
		next:      base,
		device:    c.device,
		csrfToken: c.csrfToken,
		userAgent: cfg.HTTP.UserAgent,
	}
	c.coordinator = &refreshCoordinator{
		next:      authenticator,
		refresh:   c.refreshAccessToken,
		onExpired: c.broadcaster.SignalSessionExpired,
		notices:   c.notices,
		logger:    logger,
	}
	c.httpc = &http.Client{Transport: c.coordinator, Jar: jar, Timeout: cfg.HTTP.Timeout}
	c.rawc = &http.Client{Transport: base, Jar: jar, Timeout: cfg.HTTP.Timeout}

	c.session = newSessionState(c)
	if err := c.broadcaster.OnLogout(c.session.LocalLogout); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.broadcaster.OnSessionExpired(c.session.sessionExpired); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.broadcaster.start(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Resolve the device identifier now so the first request never waits on
	// state-file IO.
	c.device.ID()

	b.built = true
	return c, nil
}

func defaultStateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "orgv"), nil
}
