package main

import (
	"flag"
	"log"

	"github.com/sorenmh/appsmith/api"
	"github.com/sorenmh/appsmith/config"
	"github.com/sorenmh/appsmith/db"
	"github.com/sorenmh/appsmith/git"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "/etc/appsd/config.yaml", "Path to configuration file")
	flag.Parse()

	log.Printf("appsd %s (commit: %s, built: %s)", version, commit, date)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded configuration with %d API keys", len(cfg.Server.APIKeys))

	// Initialize database
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	log.Printf("Database initialized at %s", cfg.Database.Path)

	var history git.HistoryRecorder = git.NopRecorder{}
	if cfg.History.Enabled {
		client, err := git.NewClient(
			cfg.History.RepositoryURL,
			cfg.History.Branch,
			cfg.History.LocalPath,
			cfg.History.Username,
			cfg.History.Token,
			cfg.History.AuthorName,
			cfg.History.AuthorEmail,
		)
		if err != nil {
			log.Fatalf("Failed to initialize history repository: %v", err)
		}
		history = client

		if cfg.History.RepositoryURL == "" {
			log.Printf("History kept in local repository %s", cfg.History.LocalPath)
		} else {
			log.Printf("History repository initialized (repo: %s, branch: %s)", cfg.History.RepositoryURL, cfg.History.Branch)
		}
	}

	if cfg.Plan.AppLimit > 0 {
		log.Printf("Plan allows %d applications", cfg.Plan.AppLimit)
	}

	server := api.NewServer(cfg, database, history)

	log.Printf("Starting appsd v%s on port %d", api.Version, cfg.Server.Port)

	if err := server.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
