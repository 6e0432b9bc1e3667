package main

import (
	"fmt"
	"os"

	"auction-bidsync/internal/auctionapi"
	"auction-bidsync/internal/config"
	"auction-bidsync/internal/push"
	"auction-bidsync/internal/reconciler"
	"auction-bidsync/internal/session"
	"auction-bidsync/utils"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	overrides  struct {
		apiBaseURL string
		auctionID  string
		userID     int64
		transport  string
		logLevel   string
	}
)

var rootCmd = &cobra.Command{
	Use:           "auction-bidsync",
	Short:         "Keep a viewer's live auction state in sync and place bids",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "bidsync.yaml", "YAML config file (optional)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file (optional)")
	flags.StringVar(&overrides.apiBaseURL, "api", "", "auction service base URL")
	flags.StringVar(&overrides.auctionID, "auction", "", "auction id")
	flags.Int64Var(&overrides.userID, "user", 0, "viewer user id")
	flags.StringVar(&overrides.transport, "transport", "", "push transport: pusher, nats or none")
	flags.StringVar(&overrides.logLevel, "log-level", "", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "auction-bidsync: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers CLI flags over the file and environment configuration
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIBaseURL = overrides.apiBaseURL
	}
	if flags.Changed("auction") {
		cfg.AuctionID = overrides.auctionID
	}
	if flags.Changed("user") {
		cfg.UserID = overrides.userID
	}
	if flags.Changed("transport") {
		cfg.Transport = overrides.transport
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = overrides.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	utils.ConfigureLogger(cfg.LogLevel, nil)
	return cfg, nil
}

func newAPIClient(cfg *config.Config) *auctionapi.Client {
	var opts []auctionapi.Option
	if cfg.APIToken != "" {
		opts = append(opts, auctionapi.WithToken(cfg.APIToken))
	}
	return auctionapi.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, opts...)
}

func newSubscriber(cfg *config.Config) push.Subscriber {
	switch cfg.Transport {
	case config.TransportPusher:
		return push.NewPusherClient(push.PusherOptions{
			Key:     cfg.Pusher.Key,
			Cluster: cfg.Pusher.Cluster,
			Host:    cfg.Pusher.Host,
			Secure:  cfg.Pusher.Secure,
		})
	case config.TransportNATS:
		return push.NewNATSSubscriber(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	default:
		return nil
	}
}

func newSession(cfg *config.Config, withPush bool) *session.Session {
	var sub push.Subscriber
	if withPush {
		sub = newSubscriber(cfg)
	}
	return session.New(newAPIClient(cfg), sub, session.Options{
		AuctionID:     cfg.AuctionID,
		UserID:        cfg.UserID,
		Channels:      reconciler.Channels(cfg.AuctionChannel(), cfg.GlobalChannel),
		PollInterval:  cfg.PollInterval,
		BeaconTimeout: cfg.BeaconTimeout,
	})
}
