package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	digest "github.com/edoardosensi/doe-ai-digest"
	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "config file path (default: ./config/config.yaml)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "digest-web: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	secret := os.Getenv(cfg.Web.JWTSecretEnv)
	if secret == "" {
		fmt.Fprintf(os.Stderr, "digest-web: %s is not set\n", cfg.Web.JWTSecretEnv)
		os.Exit(1)
	}

	engine, err := digest.NewEngine(digest.EngineConfig{
		DBPath:          cfg.Database.Path,
		ReasonerBackend: cfg.Reasoner.Backend,
		GatewayBaseURL:  cfg.Gateway.BaseURL,
		GatewayAPIKey:   os.Getenv(cfg.Gateway.APIKeyEnv),
		GatewayModel:    cfg.Gateway.Model,
		OllamaBaseURL:   cfg.Ollama.BaseURL,
		OllamaModel:     cfg.Ollama.Model,
		ReasonerTimeout: time.Duration(cfg.Reasoner.TimeoutSeconds) * time.Second,
		MinClickHistory: cfg.Recommend.MinClickHistory,
		PerSection:      cfg.Recommend.PerSection,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "digest-web: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newRouter(engine, []byte(secret))

	srv := &http.Server{
		Addr:         cfg.Web.Addr,
		Handler:      logging(recovery(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("digest-web: listening on %s", cfg.Web.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("digest-web: %v", err)
		}
	}()

	<-done
	log.Println("digest-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("digest-web: shutdown error: %v", err)
	}
	log.Println("digest-web: stopped")
}

func loadConfig(path string) (*storage.Config, error) {
	cfg := storage.DefaultConfig()

	if path == "" {
		path = "./config/config.yaml"
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
