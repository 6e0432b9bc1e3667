package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-bidsync/internal/biddingerrors"
	"auction-bidsync/internal/server"
	"auction-bidsync/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	watchCmd.Flags().String("listen", "", "viewer API listen address (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Join the auction, follow it live and serve the viewer API",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenAddr = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := newSession(cfg, true)
	defer func() {
		sess.Close()
		if !sess.Store.FlushBeacons(cfg.BeaconTimeout) {
			utils.Warn("leave beacon still in flight at exit", map[string]any{"auction_id": cfg.AuctionID})
		}
	}()

	if err := sess.Open(ctx); err != nil {
		utils.Error("join failed, continuing without membership", map[string]any{"error": err.Error()})
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.WithCORS(server.SetupRouter(sess), cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("viewer API listening", map[string]any{"addr": cfg.ListenAddr, "session_id": sess.ID})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("viewer api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, biddingerrors.ErrAuctionEnded) {
		utils.Info("auction ended, exiting", map[string]any{"auction_id": cfg.AuctionID})
		return nil
	}
	return err
}
