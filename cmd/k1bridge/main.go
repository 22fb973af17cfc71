package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"k1bridge/internal/api"
	"k1bridge/internal/bridge"
	"k1bridge/internal/config"
	"k1bridge/internal/extract"
	"k1bridge/internal/mqtt"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the options file")
	flag.Parse()

	logger := log.New(os.Stdout, "[k1bridge] ", 0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	extractor, err := extract.New(cfg.Mappings)
	if err != nil {
		logger.Fatalf("Failed to compile mappings: %v", err)
	}

	client, err := mqtt.New(cfg.MQTT, logger)
	if err != nil {
		logger.Fatalf("Failed to create MQTT client: %v", err)
	}
	if err := client.Connect(); err != nil {
		logger.Fatalf("Failed to connect to MQTT broker: %v", err)
	}
	defer client.Disconnect()

	publisher := mqtt.NewPublisher(client, cfg, logger)
	b := bridge.New(cfg, extractor, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" {
		server := api.NewServer(b, logger)
		go func() {
			logger.Printf("Status server listening on %s", cfg.StatusAddr)
			if err := http.ListenAndServe(cfg.StatusAddr, server.Router()); err != nil {
				logger.Printf("Status server failed: %v", err)
			}
		}()
	}

	logger.Printf("Bridging %s for device %q (%d mappings)", cfg.WSURL, cfg.DeviceID, len(cfg.Mappings))

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Bridge stopped: %v", err)
	}
	logger.Printf("Shutting down")
}
