package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/chatmesh/chatmesh/internal/notifications"
	"github.com/chatmesh/chatmesh/internal/observability"
	"github.com/chatmesh/chatmesh/internal/rpc"
	"github.com/chatmesh/chatmesh/internal/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger := observability.InitLogger("notifyd")
	shutdownTracing, err := telemetry.Init("notification-service", serviceVersion, cfg.ZipkinEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	srv := rpc.NewServer(rpc.ServerConfig{
		Name:         "notification-service",
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		MaxConns:     cfg.MaxConns,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		AcceptRate:   rate.Limit(cfg.AcceptRate),
		AcceptBurst:  cfg.AcceptBurst,
		Logger:       logger,
	})
	svc := notifications.NewService(notifications.Config{
		UserServiceAddr: net.JoinHostPort(cfg.UserServiceHost, cfg.UserServicePort),
		Logger:          logger,
	})
	if err := svc.Register(srv); err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info().Msg("signal_received")
	return srv.Stop()
}
