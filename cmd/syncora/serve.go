// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/syncora/syncora/internal/ai"
	"github.com/syncora/syncora/internal/auth"
	authpg "github.com/syncora/syncora/internal/auth/postgres"
	"github.com/syncora/syncora/internal/chat"
	chatpg "github.com/syncora/syncora/internal/chat/postgres"
	"github.com/syncora/syncora/internal/config"
	"github.com/syncora/syncora/internal/feed"
	"github.com/syncora/syncora/internal/logging"
	"github.com/syncora/syncora/internal/observability"
	"github.com/syncora/syncora/internal/storage"
	"github.com/syncora/syncora/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Syncora server",
		Long: `Start the Syncora server: connects to PostgreSQL, runs pending
migrations, wires the collaboration services, and serves observability
endpoints until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}

	config.Flags(cmd.Flags())

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logging.SetDefault("syncora", version, cfg.Log.Format)
	logger := slog.Default()

	logger.Info("starting syncora", "config", cfg.String())

	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url (or DATABASE_URL) is required")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	poolCfg := store.DefaultPoolConfig()
	poolCfg.MaxConns = cfg.Database.MaxConns
	pool, err := store.Open(ctx, cfg.Database.URL, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return err
	}
	if err := migrator.Close(); err != nil {
		return err
	}

	logger.Info("migrations applied")

	blobs, err := storage.NewFilesystem(cfg.Storage.AttachmentsDir)
	if err != nil {
		return err
	}

	var transformer chat.Transformer
	if cfg.AI.BaseURL != "" {
		client, err := ai.NewClient(ai.Config{
			BaseURL:    cfg.AI.BaseURL,
			APIKey:     cfg.AI.APIKey,
			Model:      cfg.AI.Model,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		})
		if err != nil {
			return err
		}
		transformer = client
		logger.Info("message transforms enabled", "backend", cfg.AI.BaseURL)
	}

	feedSvc := feed.NewService(feed.NewEventStore(pool), feed.NewBroadcaster())

	// TODO: mount the HTTP API for chatSvc and authSvc on cfg.Server.Addr.
	chatSvc := chat.NewService(chat.ServiceConfig{
		Groups:        chatpg.NewGroupRepository(pool),
		Roles:         chatpg.NewRoleRepository(pool),
		Channels:      chatpg.NewChannelRepository(pool),
		Members:       chatpg.NewMemberRepository(pool),
		Messages:      chatpg.NewMessageRepository(pool),
		Conversations: chatpg.NewConversationRepository(pool),
		Feed:          feedSvc,
		Transformer:   transformer,
		Blobs:         blobs,
		Logger:        logger,
	})
	_ = chatSvc

	sessions := authpg.NewSessionRepository(pool)
	authSvc := auth.NewService(
		authpg.NewUserRepository(pool),
		sessions,
		auth.NewArgon2idHasher(),
	)
	_ = authSvc

	// Sweep expired sessions in the background.
	go sweepSessions(ctx, sessions, logger)

	// Start observability server if configured
	var obsServer *observability.Server
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go func() {
			if obsErr, ok := <-obsErrCh; ok && obsErr != nil {
				logger.Error("observability server failed, shutting down", "error", obsErr)
				cancel()
			}
		}()
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Syncora server started")
	logger.Info("syncora ready", "metrics_addr", cfg.Server.MetricsAddr)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func sweepSessions(ctx context.Context, sessions auth.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired sessions removed", "count", deleted)
			}
		}
	}
}
