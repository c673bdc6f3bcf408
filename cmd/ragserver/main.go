// Command ragserver runs the document ingestion and retrieval API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/auth"
	"github.com/sourabhgrover/org-user-rag/internal/chunker"
	"github.com/sourabhgrover/org-user-rag/internal/config"
	"github.com/sourabhgrover/org-user-rag/internal/domain"
	"github.com/sourabhgrover/org-user-rag/internal/embedding"
	"github.com/sourabhgrover/org-user-rag/internal/embedding/hashing"
	"github.com/sourabhgrover/org-user-rag/internal/extractor"
	"github.com/sourabhgrover/org-user-rag/internal/llm"
	"github.com/sourabhgrover/org-user-rag/internal/server"
	"github.com/sourabhgrover/org-user-rag/internal/service"
	"github.com/sourabhgrover/org-user-rag/internal/storage"
	"github.com/sourabhgrover/org-user-rag/internal/vectorindex"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ragserver:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	index, err := newIndex(cfg, embedder, log)
	if err != nil {
		return err
	}

	readyCtx, cancel := context.WithTimeout(context.Background(), cfg.Index.ReadyTimeout()+5*time.Second)
	defer cancel()
	if err := index.EnsureReady(readyCtx); err != nil {
		return err
	}

	generator, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}

	secret, err := cfg.Auth.Secret()
	if err != nil {
		return err
	}

	searcher := service.NewSearcher(index, log)
	srv := server.New(
		server.Config{Addr: cfg.Server.Addr(), UploadDir: cfg.Upload.Dir},
		log,
		store,
		auth.NewTokenManager(secret, cfg.Auth.TokenTTL()),
		service.NewIngestor(extractor.NewPDF(), chunker.NewSplitter(0, 0), index, log),
		searcher,
		service.NewAnswerer(searcher, generator, log),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newEmbedder(cfg config.Config) (domain.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "local":
		return hashing.NewEmbedder(cfg.Embedding.Dimension), nil
	default:
		return embedding.NewGateway(embedding.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKeyEnv: cfg.Embedding.APIKeyEnv,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		})
	}
}

func newIndex(cfg config.Config, embedder domain.Embedder, log *zap.Logger) (domain.VectorIndex, error) {
	switch cfg.Index.Provider {
	case "memory":
		return vectorindex.NewMemoryIndex(embedder), nil
	default:
		return vectorindex.NewQdrantIndex(vectorindex.QdrantConfig{
			Host:         cfg.Index.Host,
			Port:         cfg.Index.Port,
			APIKey:       os.Getenv(cfg.Index.APIKeyEnv),
			UseTLS:       cfg.Index.UseTLS,
			Collection:   cfg.Index.Collection,
			ReadyTimeout: cfg.Index.ReadyTimeout(),
		}, embedder, log)
	}
}
