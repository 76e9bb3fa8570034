package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/handler"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	"github.com/inceptionlabs/inception/backend/internal/service/delegation"
	"github.com/inceptionlabs/inception/backend/internal/service/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	"github.com/inceptionlabs/inception/backend/internal/service/memory"
	"github.com/inceptionlabs/inception/backend/internal/service/thread"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var localModel model.ChatModel
	if cfg.Local.Enabled() {
		localModel, err = cfg.Local.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize local model: %v", err)
			log.Println("continuing without the local backend - check the OLLAMA_* environment variables")
			localModel = nil
		} else {
			log.Printf("local backend ready (%s at %s)", cfg.Local.Model, cfg.Local.BaseURL)
		}
	} else {
		log.Println("local backend disabled by configuration")
	}

	var remoteModel model.ChatModel
	if cfg.Remote.Enabled() {
		remoteModel, err = cfg.Remote.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize remote model: %v", err)
			log.Println("continuing without the remote backend - check the GROK_* environment variables")
			remoteModel = nil
		} else {
			log.Printf("remote backend ready (%s)", cfg.Remote.Model)
		}
	} else {
		log.Println("GROK_API_KEY not configured, remote backend disabled")
	}

	completions, err := llm.NewService(ctx, localModel, remoteModel)
	if err != nil {
		log.Fatalf("failed to initialize completion service: %v", err)
	}
	if len(completions.Backends()) == 0 {
		log.Println("warning: no chat backend configured, chat and incubator requests will fail")
	}

	agents := agent.NewMemoryStore(agent.Seed())
	mem := memory.NewStore(cfg.Memory.Path)
	threads := thread.NewStore(cfg.Memory.ChatDir)
	incubatorSvc := incubator.NewService(cfg.Incubator, completions, agents, mem)
	delegationSvc := delegation.NewService(completions, cfg.Delegation)

	router := handler.NewRouter(cfg.Incubator, agents, incubatorSvc, delegationSvc, completions, threads)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Inception backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
