package orgvclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Header and cookie names required by the platform on every call.
const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderCSRFToken = "X-CSRF-Token"
	CSRFCookieName  = "CSRF-Token"
)

// Config defines the tunables of a [Client]. Instances are configured during
// initialization and treated as immutable afterwards.
type Config struct {
	HTTP      HTTPConfig      `env:",prefix=ORGV_HTTP_"`
	Device    DeviceConfig    `env:",prefix=ORGV_DEVICE_"`
	Challenge ChallengeConfig `env:",prefix=ORGV_CHALLENGE_"`
	Broadcast BroadcastConfig `env:",prefix=ORGV_BROADCAST_"`
	Bootstrap BootstrapConfig `env:",prefix=ORGV_BOOTSTRAP_"`
	Notices   NoticeConfig    `env:",prefix=ORGV_NOTICE_"`
}

// HTTPConfig covers the wire: base URL of the API gateway and per-request
// timeout. The session cookie itself is managed by the client's cookie jar.
type HTTPConfig struct {
	BaseURL      string        `env:"BASE_URL"`
	Timeout      time.Duration `env:"TIMEOUT, default=30s"`
	UserAgent    string        `env:"USER_AGENT, default=orgv-console"`
	AccessCookie string        `env:"ACCESS_COOKIE, default=accessToken"`
}

// DeviceConfig locates the durable per-profile client state.
type DeviceConfig struct {
	StateDir string `env:"STATE_DIR"`
}

// ChallengeConfig carries the timer semantics shared by all six challenge
// flows. TickInterval zero disables the background ticker; countdowns then
// advance only through explicit Tick calls (used by tests).
type ChallengeConfig struct {
	SessionTTLSeconds     int           `env:"SESSION_TTL_SECONDS, default=300"`
	ResendCooldownSeconds int           `env:"RESEND_COOLDOWN_SECONDS, default=60"`
	OTPDigits             int           `env:"OTP_DIGITS, default=6"`
	TickInterval          time.Duration `env:"TICK_INTERVAL, default=1s"`
}

// BroadcastConfig covers the cross-instance logout signal.
type BroadcastConfig struct {
	LogoutKey    string        `env:"LOGOUT_KEY, default=logout"`
	PollInterval time.Duration `env:"POLL_INTERVAL, default=1s"`
}

// BootstrapConfig covers the anti-forgery bootstrap performed before the
// first authenticated call.
type BootstrapConfig struct {
	CSRFAttempts uint          `env:"CSRF_ATTEMPTS, default=3"`
	CSRFDelay    time.Duration `env:"CSRF_DELAY, default=500ms"`
}

// NoticeConfig covers user-visible notice deduplication.
type NoticeConfig struct {
	DedupWindow time.Duration `env:"DEDUP_WINDOW, default=5s"`
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "orgv-console",
			AccessCookie: "accessToken",
		},
		Challenge: ChallengeConfig{
			SessionTTLSeconds:     300,
			ResendCooldownSeconds: 60,
			OTPDigits:             6,
			TickInterval:          time.Second,
		},
		Broadcast: BroadcastConfig{
			LogoutKey:    "logout",
			PollInterval: time.Second,
		},
		Bootstrap: BootstrapConfig{
			CSRFAttempts: 3,
			CSRFDelay:    500 * time.Millisecond,
		},
		Notices: NoticeConfig{
			DedupWindow: 5 * time.Second,
		},
	}
}

// ConfigFromEnv builds a Config from ORGV_* environment variables layered
// over the defaults.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	cfg := defaultConfig()
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTP.BaseURL) == "" {
		return errors.New("HTTP.BaseURL is required")
	}
	u, err := url.Parse(c.HTTP.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("HTTP.BaseURL must be an absolute URL")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP.Timeout must be positive")
	}
	if c.Challenge.SessionTTLSeconds <= 0 {
		return errors.New("Challenge.SessionTTLSeconds must be positive")
	}
	if c.Challenge.ResendCooldownSeconds <= 0 {
		return errors.New("Challenge.ResendCooldownSeconds must be positive")
	}
	if c.Challenge.OTPDigits < 4 || c.Challenge.OTPDigits > 10 {
		return errors.New("Challenge.OTPDigits out of range")
	}
	if c.Challenge.TickInterval < 0 {
		return errors.New("Challenge.TickInterval must not be negative")
	}
	if c.Broadcast.LogoutKey == "" {
		return errors.New("Broadcast.LogoutKey is required")
	}
	if c.Broadcast.PollInterval <= 0 {
		return errors.New("Broadcast.PollInterval must be positive")
	}
	if c.Bootstrap.CSRFAttempts == 0 {
		return errors.New("Bootstrap.CSRFAttempts must be at least 1")
	}
	if c.Notices.DedupWindow < 0 {
		return errors.New("Notices.DedupWindow must not be negative")
	}
	return nil
}
