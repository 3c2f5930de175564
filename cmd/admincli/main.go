package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/conf"
	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/kvstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := conf.Load("config.toml")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	var kv kvstore.Store
	if cfg.SqlitePath != "" {
		kv, err = kvstore.NewSqlite(cfg.SqlitePath)
	} else {
		kv, err = kvstore.NewFile(cfg.DataDir)
	}
	if err != nil {
		fmt.Printf("Error opening storage: %v\n", err)
		os.Exit(1)
	}

	store := feedback.NewStore(kv)
	guard, err := adminauth.NewGuard(kv, cfg.AdminPasswordDigest,
		adminauth.WithTimeout(cfg.SessionTimeout()))
	if err != nil {
		fmt.Printf("Error setting up admin guard: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(store, guard))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
