package main

import (
	"context"
	"os"
	"path/filepath"
	_ "time/tzdata"

	"github.com/subosito/gotenv"

	"github.com/connerkward/every-time/cmd"
	"github.com/connerkward/every-time/internal/logger"
)

// Build-time variables injected by ldflags
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Load .env file if present to allow credential overrides.
	// Order: project root .env > XDG config dir .env (first one found is loaded)
	tryPaths := []string{".env"}
	if cfgHome, err := os.UserConfigDir(); err == nil {
		tryPaths = append(tryPaths, filepath.Join(cfgHome, "every-time", ".env"))
	}
	for _, p := range tryPaths {
		if _, err := os.Stat(p); err == nil {
			if loadErr := gotenv.Load(p); loadErr == nil {
				break
			}
		}
	}

	cmd.SetVersionInfo(Version, CommitHash, BuildTime)

	if err := cmd.Execute(context.Background()); err != nil {
		logger.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
