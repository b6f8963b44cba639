package orgvclient

import (
	"context"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.HTTP.BaseURL = "https://gateway.orgv.test"
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Challenge.SessionTTLSeconds != 300 {
		t.Fatalf("SessionTTLSeconds = %d, want 300", cfg.Challenge.SessionTTLSeconds)
	}
	if cfg.Challenge.ResendCooldownSeconds != 60 {
		t.Fatalf("ResendCooldownSeconds = %d, want 60", cfg.Challenge.ResendCooldownSeconds)
	}
	if cfg.Challenge.OTPDigits != 6 {
		t.Fatalf("OTPDigits = %d, want 6", cfg.Challenge.OTPDigits)
	}
	if cfg.HTTP.AccessCookie != "accessToken" {
		t.Fatalf("AccessCookie = %q, want accessToken", cfg.HTTP.AccessCookie)
	}
	if cfg.Broadcast.LogoutKey != "logout" {
		t.Fatalf("LogoutKey = %q, want logout", cfg.Broadcast.LogoutKey)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.HTTP.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.HTTP.BaseURL = "gateway.orgv.test/api" }},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"zero session ttl", func(c *Config) { c.Challenge.SessionTTLSeconds = 0 }},
		{"zero resend cooldown", func(c *Config) { c.Challenge.ResendCooldownSeconds = 0 }},
		{"otp digits too small", func(c *Config) { c.Challenge.OTPDigits = 3 }},
		{"otp digits too large", func(c *Config) { c.Challenge.OTPDigits = 11 }},
		{"negative tick interval", func(c *Config) { c.Challenge.TickInterval = -time.Second }},
		{"empty logout key", func(c *Config) { c.Broadcast.LogoutKey = "" }},
		{"zero poll interval", func(c *Config) { c.Broadcast.PollInterval = 0 }},
		{"zero csrf attempts", func(c *Config) { c.Bootstrap.CSRFAttempts = 0 }},
		{"negative dedup window", func(c *Config) { c.Notices.DedupWindow = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ORGV_HTTP_BASE_URL", "https://gateway.orgv.test")
	t.Setenv("ORGV_CHALLENGE_SESSION_TTL_SECONDS", "120")
	t.Setenv("ORGV_CHALLENGE_OTP_DIGITS", "8")
	t.Setenv("ORGV_BROADCAST_LOGOUT_KEY", "signout")

	cfg, err := ConfigFromEnv(context.Background())
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.HTTP.BaseURL != "https://gateway.orgv.test" {
		t.Fatalf("BaseURL = %q", cfg.HTTP.BaseURL)
	}
	if cfg.Challenge.SessionTTLSeconds != 120 {
		t.Fatalf("SessionTTLSeconds = %d, want 120", cfg.Challenge.SessionTTLSeconds)
	}
	if cfg.Challenge.OTPDigits != 8 {
		t.Fatalf("OTPDigits = %d, want 8", cfg.Challenge.OTPDigits)
	}
	if cfg.Broadcast.LogoutKey != "signout" {
		t.Fatalf("LogoutKey = %q, want signout", cfg.Broadcast.LogoutKey)
	}
	// Untouched values keep their defaults.
	if cfg.Challenge.ResendCooldownSeconds != 60 {
		t.Fatalf("ResendCooldownSeconds = %d, want 60", cfg.Challenge.ResendCooldownSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config rejected: %v", err)
	}
}
