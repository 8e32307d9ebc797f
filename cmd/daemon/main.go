package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cardsmith/go-backend/internal/bootstrap/botconfig"
	"cardsmith/go-backend/internal/composition/botserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to cardbot.yaml (optional)")
	listenAddr := flag.String("listen", "", "Listen multiaddr, e.g. /ip4/127.0.0.1/tcp/8787")
	workDir := flag.String("work-dir", "", "Directory for temp artifacts and the admin list")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Cardbot-RPC-Token; \"auto\" generates one")
	ownerID := flag.Int64("owner-id", 0, "Telegram user id of the bot owner")
	flag.Parse()
	if *showVersion {
		fmt.Printf("cardbot version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg, err := botconfig.LoadFromPath(*configPath)
	if err != nil {
		log.Fatalf("cardbot config: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *workDir != "" {
		if cfg.AdminFile == filepath.Join(cfg.WorkDir, "admins") {
			cfg.AdminFile = ""
		}
		cfg.WorkDir = *workDir
	}
	if *rpcToken != "" {
		cfg.RPCToken = *rpcToken
	}
	if *ownerID != 0 {
		cfg.OwnerID = *ownerID
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon, err := botserver.Build(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("cardbot failed to initialize: %v", err)
	}
	if err := daemon.Run(ctx); err != nil {
		log.Fatalf("cardbot failed: %v", err)
	}
}
