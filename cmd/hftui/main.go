package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/logging"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/rpc"
	"github.com/heyfriend/heyfriend/internal/session"
	"github.com/heyfriend/heyfriend/internal/status"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui"
	"go.uber.org/zap"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", session.ConfigPath(), "path to config.toml")
	noStartFlag := flag.Bool("no-start", false, "do not start a local hfd when the backend is down")
	flag.Parse()

	if err := run(*profileFlag, *configFlag, !*noStartFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(profileFlag, configPath string, autoStart bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}

	name := profileFlag
	if name == "" {
		name = cfg.DefaultProfile
	}
	name = session.Resolve(name)
	if err := session.ValidateName(name); err != nil {
		return err
	}
	if err := session.EnsureDir(name); err != nil {
		return err
	}
	principal, created, err := session.EnsureIdentity(name)
	if err != nil {
		return err
	}

	logger, err := logging.New(session.LogPath(name), name, logging.WithoutConsole())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if created {
		logger.Info("new identity", zap.String("principal", principal))
	}

	store, err := overlay.Open(session.OverlayDir(name), logger.Named("overlay"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := rpc.Connect(cfg.Backend.Address, cfg.Backend.BlobURL, backend.Principal(principal))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if !probeBackend(client) && autoStart && isLocal(cfg.Backend.Address) {
		fmt.Fprintf(os.Stderr, "backend not reachable at %s, starting hfd...\n", cfg.Backend.Address)
		if err := startDaemon(configPath); err != nil {
			return fmt.Errorf("start hfd: %w", err)
		}
		if !waitForBackend(client, 10*time.Second) {
			return errors.New("hfd did not become ready")
		}
	}

	b := bus.New()
	defer b.Close()
	machine := status.NewMachine(b)
	cache := query.New(
		query.WithBus(b),
		query.WithEnabled(machine.IsReady),
		query.WithLogger(logger.Named("query")),
		query.WithMetrics(query.NewMetrics(nil)),
	)
	defer cache.Close()

	engine := hsync.NewEngine(client, cache, machine, logger.Named("sync"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Connect(ctx); err != nil {
		logger.Warn("connect failed, starting degraded", zap.Error(err))
	}
	engine.Start(ctx)
	defer engine.Stop()

	app := tui.NewApp(tui.Options{
		Engine:  engine,
		Overlay: store,
		Profile: name,
		Self:    backend.Principal(principal),
		Logger:  logger.Named("tui"),
	})
	return app.Run()
}

// probeBackend makes a real call; anything but an unavailable error means
// a backend answered.
func probeBackend(c *rpc.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.GetCallerUserProfile(ctx)
	return !errors.Is(err, backend.ErrUnavailable)
}

func waitForBackend(c *rpc.Client, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeBackend(c) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}

func isLocal(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func startDaemon(configPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	hfd := filepath.Join(filepath.Dir(executable), "hfd")
	if _, err := os.Stat(hfd); err != nil {
		hfd = "hfd"
	}

	cmd := exec.Command(hfd, "--config", configPath)
	// Inherit stderr so startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
