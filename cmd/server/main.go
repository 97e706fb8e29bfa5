package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/api"
	"chat-relay/internal/chat"
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	"chat-relay/internal/middleware"
	"chat-relay/internal/repository"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer pool.Close()

	repo := repository.NewMessagesRepo(pool)
	hub := chat.NewHub()
	svc := chat.NewService(repo, hub)
	policy := middleware.NewOriginPolicy(cfg.ClientOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			api.PostMessageHandler(svc)(w, r)
		default:
			api.GetMessagesHandler(svc)(w, r)
		}
	})
	mux.HandleFunc("/ws", api.ServeWS(hub, svc, policy))
	mux.HandleFunc("/health", api.HealthHandler)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: policy.CORS(mux),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Server listening on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	log.Println("Shutdown signal received. Cleaning up...")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Graceful shutdown complete. Goodnight!")
}
