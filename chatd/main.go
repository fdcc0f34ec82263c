package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/presbrey/chat"
	"github.com/presbrey/chat/admind"
	"github.com/presbrey/chat/config"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (yaml, toml, or json)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *debug {
		cfg.Debug = true
	}

	log.Printf("Starting %s on %s (network %s)", chat.Version, cfg.ListenAddress(), cfg.Server.Network)

	server := chat.NewServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	var admin *admind.Server
	if cfg.Admin.Enabled {
		admin = admind.New(server, cfg)
		go func() {
			log.Printf("Admin server listening on %s", cfg.AdminAddress())
			if err := admin.Start(); err != nil {
				log.Printf("Admin server error: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("Server is running. Press Ctrl+C to stop.")
	<-sigChan
	log.Println("Shutdown signal received, stopping server...")

	if admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := admin.Stop(ctx); err != nil {
			log.Printf("Error stopping admin server: %v", err)
		}
		cancel()
	}
	if err := server.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}

	log.Println("Server stopped. Goodbye!")
}
