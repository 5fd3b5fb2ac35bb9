package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/rpc"
	"github.com/heyfriend/heyfriend/internal/session"
	"github.com/heyfriend/heyfriend/internal/status"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/spf13/cobra"
)

var (
	profileFlag string
	configFlag  string
	jsonOutput  bool
	timeoutFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "hfctl",
	Short:         "Script a Hey Friend profile from the shell",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", session.ConfigPath(), "path to config.toml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 15*time.Second, "deadline for backend calls")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveProfile(cfg *config.Config) (string, error) {
	name := profileFlag
	if name == "" {
		name = cfg.DefaultProfile
	}
	name = session.Resolve(name)
	if err := session.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// clientSession is one profile's connection to the backend.
type clientSession struct {
	profile   string
	principal backend.Principal
	bus       *bus.Bus
	client    *rpc.Client
	engine    *hsync.Engine
}

// connect dials the backend as the profile's identity. With needProfile
// set, a caller that has not registered yet is an error.
func connect(ctx context.Context, needProfile bool) (*clientSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	name, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}
	principal, err := session.LoadIdentity(name)
	if err != nil {
		return nil, err
	}
	client, err := rpc.Connect(cfg.Backend.Address, cfg.Backend.BlobURL, backend.Principal(principal))
	if err != nil {
		return nil, err
	}

	b := bus.New()
	machine := status.NewMachine(b)
	cache := query.New(query.WithBus(b), query.WithEnabled(machine.IsReady))
	s := &clientSession{
		profile:   name,
		principal: backend.Principal(principal),
		bus:       b,
		client:    client,
		engine:    hsync.NewEngine(client, cache, machine, nil),
	}
	if err := s.engine.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("cannot reach backend at %s: %w", cfg.Backend.Address, err)
	}
	if needProfile && machine.Current() != status.Ready {
		s.Close()
		return nil, errors.New("no profile registered; run hfctl register")
	}
	return s, nil
}

func (s *clientSession) Close() {
	s.engine.Stop()
	s.engine.Cache().Close()
	s.bus.Close()
	_ = s.client.Close()
}

// openOverlay opens the profile's local store. It fails while hftui holds
// the same profile open.
func openOverlay() (*overlay.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	name, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureDir(name); err != nil {
		return nil, err
	}
	store, err := overlay.Open(session.OverlayDir(name), nil)
	if err != nil {
		return nil, fmt.Errorf("open local store (is hftui running?): %w", err)
	}
	return store, nil
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeoutFlag)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
