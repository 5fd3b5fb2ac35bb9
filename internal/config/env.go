package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ApplyEnv loads an optional .env file and then overrides cfg with any
// HEYFRIEND_* variables present in the environment.
func ApplyEnv(cfg *Config) error {
	// Missing .env is the common case.
	_ = godotenv.Load(".env")

	setString(&cfg.DefaultProfile, "HEYFRIEND_PROFILE")
	setString(&cfg.Backend.Address, "HEYFRIEND_BACKEND_ADDR")
	setString(&cfg.Backend.BlobURL, "HEYFRIEND_BLOB_URL")
	setString(&cfg.Server.GRPCAddr, "HEYFRIEND_GRPC_ADDR")
	setString(&cfg.Server.HTTPAddr, "HEYFRIEND_HTTP_ADDR")
	setString(&cfg.Server.PublicURL, "HEYFRIEND_PUBLIC_URL")
	setString(&cfg.Server.JanitorSchedule, "HEYFRIEND_JANITOR_SCHEDULE")

	if v := os.Getenv("HEYFRIEND_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HEYFRIEND_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = f
	}
	if v := os.Getenv("HEYFRIEND_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HEYFRIEND_RATE_BURST: %w", err)
		}
		cfg.Server.RateBurst = n
	}
	if v := os.Getenv("HEYFRIEND_BLOB_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HEYFRIEND_BLOB_GRACE: %w", err)
		}
		cfg.Server.BlobGrace = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
