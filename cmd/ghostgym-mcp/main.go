// ghostgym-mcp serves the workout library over MCP on stdio. It talks
// either to the REST API (client.base_url + token) or straight to
// Postgres (-direct) when running next to the database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/ghostgym/internal/auth"
	"github.com/claude/ghostgym/internal/config"
	"github.com/claude/ghostgym/internal/mcp"
	"github.com/claude/ghostgym/internal/storage"
	"github.com/claude/ghostgym/internal/store/dedup"
	"github.com/claude/ghostgym/internal/store/remote"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	direct := flag.Bool("direct", false, "query Postgres directly instead of the REST API")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var ds mcp.DataSource
	if *direct {
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		user, err := db.GetUserByToken(context.Background(), cfg.Client.Token)
		if err != nil {
			log.Error("client.token does not match an account", "error", err)
			os.Exit(1)
		}
		ds = mcp.NewDBSource(db, user.ID)
		log.Info("mcp server starting", "mode", "direct", "user", user.Email)
	} else {
		if cfg.Client.BaseURL == "" || cfg.Client.Token == "" {
			log.Error("client.base_url and client.token are required without -direct")
			os.Exit(1)
		}
		tokens := auth.NewStaticTokenSource(&auth.User{UID: "mcp"}, cfg.Client.Token)
		ds = remote.New(cfg.Client.BaseURL, tokens, dedup.New(dedup.DefaultTTL))
		log.Info("mcp server starting", "mode", "remote", "base_url", cfg.Client.BaseURL)
	}

	s := mcp.New(ds, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
