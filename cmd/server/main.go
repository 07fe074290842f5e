// Command server runs the browser-tab chat bridge: an OpenAI-compatible
// HTTP API in front of a chat provider website driven through a real
// browser tab.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/config"
	"github.com/tabpilot/tabpilot/internal/logging"
	"github.com/tabpilot/tabpilot/internal/server"
	"github.com/tabpilot/tabpilot/internal/version"
)

func main() {
	var (
		configPath = flag.String("config", "tabpilot.toml", "path to TOML config file")
		port       = flag.String("port", "", "listen port (overrides config)")
		provider   = flag.String("provider", "", "chat provider to drive (overrides config)")
		headless   = flag.Bool("headless", false, "run the browser headless")
		dev        = flag.Bool("dev", false, "development logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *provider != "" {
		cfg.Provider.Name = *provider
	}
	if *headless {
		cfg.Browser.Headless = true
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal("Server assembly failed", zap.Error(err))
	}

	fmt.Print(version.Banner(cfg.Provider.Name, cfg.Provider.ModelID, srv.Addr()))
	go func() {
		latest, outdated, err := version.CheckLatest()
		if err != nil {
			log.Debug("Version check skipped", zap.Error(err))
			return
		}
		if outdated {
			log.Info("A newer release is available",
				zap.String("current", version.Version),
				zap.String("latest", latest),
			)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	case sig := <-sigChan:
		log.Info("Shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Shutdown incomplete", zap.Error(err))
		}
	}
}
