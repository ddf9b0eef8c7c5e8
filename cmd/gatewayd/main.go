package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatmesh/chatmesh/internal/gateway"
	"github.com/chatmesh/chatmesh/internal/observability"
	"github.com/chatmesh/chatmesh/internal/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatewayd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger := observability.InitLogger("gatewayd")
	shutdownTracing, err := telemetry.Init("tcp-api-gateway", serviceVersion, cfg.ZipkinEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	srv := gateway.New(gateway.Config{
		ListenAddr:              net.JoinHostPort(cfg.Host, cfg.Port),
		UserServiceAddr:         net.JoinHostPort(cfg.UserServiceHost, cfg.UserServicePort),
		MessageServiceAddr:      net.JoinHostPort(cfg.MessageServiceHost, cfg.MessageServicePort),
		NotificationServiceAddr: net.JoinHostPort(cfg.NotificationServiceHost, cfg.NotificationServicePort),
		Logger:                  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
