package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bronotion/backend/internal/api"
	"github.com/bronotion/backend/internal/auth"
	"github.com/bronotion/backend/internal/config"
	"github.com/bronotion/backend/internal/relay"
	"github.com/bronotion/backend/internal/store"
)

func main() {
	cfg := config.Load()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	hub := relay.NewHub()
	go hub.Run()

	go purgeLoop(st, cfg.PurgeAfter)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	handler := corsMiddleware(api.New(hub, st, tokens).Routes())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Bronotion server starting on %s", cfg.Addr)
	log.Printf("Database: %s", cfg.DBPath)
	log.Println("Endpoints:")
	log.Println("  - WebSocket: /ws")
	log.Println("  - Health:    GET /health")
	log.Println("  - Metrics:   GET /metrics")
	log.Println("  - Auth:      POST /api/auth/{signup,login,oauth}")
	log.Println("  - Notes:     GET/POST /api/notes, GET/PUT/DELETE /api/notes/{id}")
	log.Println("  - Restore:   POST /api/notes/{id}/restore")
	log.Println("  - Shares:    GET/POST /api/notes/{id}/shares, DELETE /api/notes/{id}/shares/{userId}")
	log.Println("  - Tags:      GET/POST /api/tags, DELETE /api/tags/{id}")
	log.Println("  - Stats:     GET /api/stats")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("ListenAndServe: ", err)
	}
}

// purgeLoop hard-deletes notes that have sat in the trash longer than
// the configured retention.
func purgeLoop(st *store.Store, retention time.Duration) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		n, err := st.Notes.PurgeDeleted(time.Now().Add(-retention))
		if err != nil {
			log.Printf("Purge failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("Purged %d deleted notes", n)
		}
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
