package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/daemon"
	"github.com/heyfriend/heyfriend/internal/session"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", session.ConfigPath(), "path to config.toml")
	dataFlag := flag.String("data", "", "data directory (default ~/.heyfriend/server)")
	grpcFlag := flag.String("grpc", "", "gRPC listen address (overrides config)")
	httpFlag := flag.String("http", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *grpcFlag != "" {
		cfg.Server.GRPCAddr = *grpcFlag
	}
	if *httpFlag != "" {
		cfg.Server.HTTPAddr = *httpFlag
	}

	app := fx.New(
		daemon.Module(daemon.Params{Config: cfg, DataDir: *dataFlag}),
	)

	app.Run()
}
