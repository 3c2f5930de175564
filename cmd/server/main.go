package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/conf"
	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/httpserver"
	"github.com/essexfb/backend/kvstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := conf.Load("config.toml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.JWTKey == "" {
		slog.Error("JWT_KEY is not set")
		os.Exit(1)
	}

	kv, err := openKvStore(cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	storeOpts := []feedback.StoreOption{}
	if cfg.FeedbackSinkURL != "" {
		storeOpts = append(storeOpts, feedback.WithSink(feedback.NewHTTPSink(cfg.FeedbackSinkURL)))
	}
	if cfg.GitHubMirrorEnabled() {
		storeOpts = append(storeOpts, feedback.WithSink(feedback.NewGitHubMirror(feedback.GitHubMirrorConfig{
			Owner:  cfg.GitHubOwner,
			Repo:   cfg.GitHubRepo,
			Branch: cfg.GitHubBranch,
			Path:   cfg.GitHubCSVPath,
			Token:  cfg.GitHubToken,
		})))
	}
	if cfg.S3MirrorEnabled() {
		mirror, err := feedback.NewS3Mirror(context.Background(),
			cfg.S3Region, cfg.S3Bucket, cfg.S3BackupKey)
		if err != nil {
			slog.Error("failed to set up S3 mirror", "error", err)
			os.Exit(1)
		}
		storeOpts = append(storeOpts, feedback.WithSink(mirror))
	}

	store := feedback.NewStore(kv, storeOpts...)

	guard, err := adminauth.NewGuard(kv, cfg.AdminPasswordDigest,
		adminauth.WithTimeout(cfg.SessionTimeout()))
	if err != nil {
		slog.Error("failed to set up admin guard", "error", err)
		os.Exit(1)
	}

	server := httpserver.New(store, guard, []byte(cfg.JWTKey), cfg.CORSOrigins)

	log.Printf("Starting server on %s", cfg.HTTPAddress)
	err = server.Start(cfg.HTTPAddress)
	log.Printf("Server stopped with error: %v", err)
}

func openKvStore(cfg conf.Config) (kvstore.Store, error) {
	if cfg.SqlitePath != "" {
		return kvstore.NewSqlite(cfg.SqlitePath)
	}
	return kvstore.NewFile(cfg.DataDir)
}
