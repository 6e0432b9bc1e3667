package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auction-bidsync/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() Config {
	cfg := Default()
	cfg.APIBaseURL = "http://localhost:3000"
	cfg.AuctionID = "a1"
	cfg.UserID = 5
	cfg.Pusher.Key = "key"
	return cfg
}

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	require.Equal(t, TransportPusher, cfg.Transport)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, "auctions", cfg.GlobalChannel)
}

func TestLoad_MissingFilesTolerated(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
}

func TestLoad_YAMLThenEnvPrecedence(t *testing.T) {
	path := writeFile(t, "bidsync.yaml", `
api_base_url: http://api.example.com/
auction_id: yaml-auction
user_id: 7
request_timeout: 3s
transport: NATS
nats:
  url: nats://broker:4222
allowed_origins: [http://a.example, http://b.example]
`)
	t.Setenv("BIDSYNC_AUCTION_ID", "env-auction")
	t.Setenv("BIDSYNC_NATS_SUBJECT_PREFIX", "live")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, "http://api.example.com", cfg.APIBaseURL)
	require.Equal(t, "env-auction", cfg.AuctionID)
	require.Equal(t, int64(7), cfg.UserID)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, TransportNATS, cfg.Transport)
	require.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	require.Equal(t, "live", cfg.NATS.SubjectPrefix)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	require.Equal(t, "auction-env-auction", cfg.AuctionChannel())
}

func TestLoad_DotenvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "BIDSYNC_USER_ID=42\nBIDSYNC_POLL_INTERVAL=0s\n")
	t.Cleanup(func() {
		os.Unsetenv("BIDSYNC_USER_ID")
		os.Unsetenv("BIDSYNC_POLL_INTERVAL")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	require.Equal(t, int64(42), cfg.UserID)
	require.Equal(t, time.Duration(0), cfg.PollInterval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "user_id: [not a number")
	_, err := Load(path, "")
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid_pusher", mutate: func(c *Config) {}},
		{name: "valid_none", mutate: func(c *Config) { c.Transport = TransportNone; c.Pusher.Key = "" }},
		{name: "valid_nats", mutate: func(c *Config) { c.Transport = TransportNATS }},
		{name: "missing_base_url", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: true},
		{name: "missing_auction", mutate: func(c *Config) { c.AuctionID = "" }, wantErr: true},
		{name: "zero_user", mutate: func(c *Config) { c.UserID = 0 }, wantErr: true},
		{name: "zero_timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: true},
		{name: "negative_poll", mutate: func(c *Config) { c.PollInterval = -time.Second }, wantErr: true},
		{name: "pusher_without_key", mutate: func(c *Config) { c.Pusher.Key = "" }, wantErr: true},
		{name: "nats_without_url", mutate: func(c *Config) { c.Transport = TransportNATS; c.NATS.URL = "" }, wantErr: true},
		{name: "unknown_transport", mutate: func(c *Config) { c.Transport = "carrier-pigeon" }, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, biddingerrors.ErrInvalidConfig))
			} else {
				require.NoError(t, err)
			}
		})
	}
}
