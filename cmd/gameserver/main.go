// Package main provides the game server binary: the session coordinator for
// the two-player raccoon game, served over WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/raccoons/internal/config"
	"github.com/cory-johannsen/raccoons/internal/game/level"
	"github.com/cory-johannsen/raccoons/internal/game/room"
	"github.com/cory-johannsen/raccoons/internal/game/session"
	"github.com/cory-johannsen/raccoons/internal/game/spawn"
	"github.com/cory-johannsen/raccoons/internal/gameserver"
	"github.com/cory-johannsen/raccoons/internal/observability"
	"github.com/cory-johannsen/raccoons/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server", zap.String("addr", cfg.Server.Addr()))

	// Load level data. A missing or invalid level is loudly logged rather
	// than fatal: the server stays up, but with an empty spawn pool every
	// join will be denied until the asset is fixed.
	var spawnDefs []level.SpawnDef
	levelStart := time.Now()
	lvl, err := level.LoadFromFile(cfg.Level.Path)
	if err != nil {
		logger.Error("CRITICAL: loading level data failed, spawning will not work",
			zap.String("path", cfg.Level.Path),
			zap.Error(err),
		)
	} else {
		spawnDefs = lvl.SpawnPoints
		logger.Info("level loaded",
			zap.String("path", cfg.Level.Path),
			zap.Int("spawn_points", len(lvl.SpawnPoints)),
			zap.Int("walls", len(lvl.Walls)),
			zap.Duration("elapsed", time.Since(levelStart)),
		)
	}

	// Create the coordinator over its registry and pool, and wire the hub
	// both ways: the hub feeds requests in, the coordinator broadcasts out.
	pool := spawn.NewPool(spawnDefs)
	registry := session.NewRegistry()
	hub := gameserver.NewHub(cfg.Server, logger)
	coordinator := room.NewCoordinator(registry, pool, hub, logger)
	hub.SetCoordinator(coordinator)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: hub.Routes(),
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
			}
			logger.Info("server listening", zap.String("addr", lis.Addr().String()))
			if err := httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})
	// The hub has no run loop of its own; connections drive it. Its service
	// just holds the start slot open until Stop closes the connections.
	hubDone := make(chan struct{})
	lifecycle.Add("hub", &server.FuncService{
		StartFn: func() error {
			<-hubDone
			return nil
		},
		StopFn: func() {
			hub.Stop()
			close(hubDone)
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("spawn_points", pool.Size()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
