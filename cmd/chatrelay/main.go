package main

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"chatrelay/internal/app"
	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, storeVal, cfgVal, setFlags := config.ParseCommandFlags()

	// flag wins over env for the config path
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// explicit flags win over env/config
	if setFlags["addr"] {
		host, port, ok := strings.Cut(addrVal, ":")
		if !ok {
			host = addrVal
		}
		if host == "" {
			host = "0.0.0.0"
		}
		cfg.Server.Address = host
		if p, err := strconv.Atoi(port); ok && err == nil {
			cfg.Server.Port = p
		}
	}
	if setFlags["store"] || cfg.Store.Path == "" {
		cfg.Store.Path = storeVal
	}

	logger.InitWithLevel(cfg.Logging.Level)

	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}

	a, err := app.New(cfg, strings.Join(srcs, ", "), version, commit, buildDate)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
