package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"auction-bidsync/internal/biddingerrors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the config reads
const EnvPrefix = "BIDSYNC_"

// Transport names accepted by Config.Transport
const (
	TransportPusher = "pusher"
	TransportNATS   = "nats"
	TransportNone   = "none"
)

// PusherConfig selects the Pusher Channels application to subscribe to
type PusherConfig struct {
	Key     string `yaml:"key" env:"KEY"`
	Cluster string `yaml:"cluster" env:"CLUSTER"`
	// Host overrides the cluster-derived host, e.g. for a self-hosted soketi.
	Host   string `yaml:"host" env:"HOST"`
	Secure bool   `yaml:"secure" env:"SECURE"`
}

// NATSConfig points the NATS bridge at a server and subject namespace
type NATSConfig struct {
	URL           string `yaml:"url" env:"URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

// Config holds everything needed to attach one viewer to one auction
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url" env:"API_BASE_URL"`
	APIToken       string        `yaml:"api_token" env:"API_TOKEN"`
	AuctionID      string        `yaml:"auction_id" env:"AUCTION_ID"`
	UserID         int64         `yaml:"user_id" env:"USER_ID"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	BeaconTimeout  time.Duration `yaml:"beacon_timeout" env:"BEACON_TIMEOUT"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`

	Transport     string       `yaml:"transport" env:"TRANSPORT"`
	GlobalChannel string       `yaml:"global_channel" env:"GLOBAL_CHANNEL"`
	Pusher        PusherConfig `yaml:"pusher" envPrefix:"PUSHER_"`
	NATS          NATSConfig   `yaml:"nats" envPrefix:"NATS_"`

	ListenAddr     string   `yaml:"listen_addr" env:"LISTEN_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string   `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the configuration used when nothing else is set
func Default() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		BeaconTimeout:  2 * time.Second,
		PollInterval:   30 * time.Second,
		Transport:      TransportPusher,
		GlobalChannel:  "auctions",
		Pusher:         PusherConfig{Cluster: "us2", Secure: true},
		NATS:           NATSConfig{URL: "nats://127.0.0.1:4222", SubjectPrefix: "auctions"},
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
	}
}

// Load layers defaults, the optional YAML file, the optional dotenv file and the
// process environment, in that order. Missing files are not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &cfg, nil
}

// Validate reports the first setting that would prevent a session from running
func (c *Config) Validate() error {
	switch {
	case c.APIBaseURL == "":
		return fmt.Errorf("config: %w - api_base_url is required", biddingerrors.ErrInvalidConfig)
	case c.AuctionID == "":
		return fmt.Errorf("config: %w - auction_id is required", biddingerrors.ErrInvalidConfig)
	case c.UserID <= 0:
		return fmt.Errorf("config: %w - user_id must be positive", biddingerrors.ErrInvalidConfig)
	case c.RequestTimeout <= 0 || c.BeaconTimeout <= 0:
		return fmt.Errorf("config: %w - timeouts must be positive", biddingerrors.ErrInvalidConfig)
	case c.PollInterval < 0:
		return fmt.Errorf("config: %w - poll_interval cannot be negative", biddingerrors.ErrInvalidConfig)
	}

	switch c.Transport {
	case TransportPusher:
		if c.Pusher.Key == "" {
			return fmt.Errorf("config: %w - pusher.key is required for the pusher transport", biddingerrors.ErrInvalidConfig)
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			return fmt.Errorf("config: %w - nats.url is required for the nats transport", biddingerrors.ErrInvalidConfig)
		}
	case TransportNone:
	default:
		return fmt.Errorf("config: %w - unknown transport %q", biddingerrors.ErrInvalidConfig, c.Transport)
	}
	return nil
}

// AuctionChannel is the per-auction push channel name
func (c *Config) AuctionChannel() string {
	return "auction-" + c.AuctionID
}
