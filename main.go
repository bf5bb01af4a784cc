package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/epicweatherbox/weatherbox/api"
	"github.com/epicweatherbox/weatherbox/assetsync"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/display"
	"github.com/epicweatherbox/weatherbox/gifsafe"
	"github.com/epicweatherbox/weatherbox/screen"
	"github.com/epicweatherbox/weatherbox/stats"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/weather"
)

func main() {
	rootPath := os.Getenv("WEATHERBOX_ROOT_PATH")
	if rootPath == "" {
		log.Fatal("WEATHERBOX_ROOT_PATH environment variable is required")
	}
	gifDir := filepath.Join(rootPath, "gifs")
	if err := os.MkdirAll(gifDir, 0o755); err != nil {
		log.Fatalf("Failed to create asset directory: %v", err)
	}

	// Initialize database
	dbPath := filepath.Join(rootPath, "weatherbox.db")
	database, err := store.NewDatabase(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Boot-loop recovery runs before anything else may touch an
	// animated asset.
	safety := gifsafe.NewController(rootPath, database)
	if removed, poisoned := safety.RecoverBoot(); poisoned {
		slog.Warn("recovered from crashed playback", "removed", removed)
	}

	cfg, err := config.NewStore(rootPath)
	if err != nil {
		log.Fatalf("Failed to initialize config store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Weather provider; the engine applies the configured units on
	// construction.
	weatherCli := weather.NewClient("", false)
	weatherMgr := weather.NewManager(weatherCli)
	go weatherMgr.Run(ctx)

	// Channel stats feed, active only when configured
	var statsFeed screen.StatsProvider
	if key, channel := os.Getenv("WEATHERBOX_YT_API_KEY"), os.Getenv("WEATHERBOX_YT_CHANNEL"); key != "" && channel != "" {
		statsMgr := stats.NewManager(stats.NewClient("", key, channel))
		go statsMgr.Run(ctx)
		statsFeed = statsMgr
	}

	// Local asset scan
	localManager, err := assetsync.NewLocalManager(gifDir, database, safety)
	if err != nil {
		log.Fatalf("Failed to initialize local manager: %v", err)
	}
	stop := make(chan struct{})
	defer close(stop)
	go localManager.Run(stop)

	// Remote sync is optional; without AWS configuration the device
	// runs on locally loaded assets only.
	if remoteManager, err := assetsync.NewRemoteManager(database, safety); err != nil {
		slog.Info("remote asset sync disabled", "reason", err)
	} else {
		go remoteManager.Run(ctx)
	}

	sink := display.NewFileSink(display.FramePath(rootPath))
	engine := NewEngine(cfg, weatherCli, weatherMgr, statsFeed, database, safety,
		sink, sink, gifDir, clockwork.NewRealClock())
	go engine.Run(ctx)

	webServer := api.NewWebServer(engine, database)
	webServer.Start("0.0.0.0:8080")
}
