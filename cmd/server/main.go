// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"kierki/internal/auth"
	"kierki/internal/cache"
	"kierki/internal/handlers"
	"kierki/internal/history"
	"kierki/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	// Optional collaborators; the game runs without either.
	if os.Getenv("PG_HOST") != "" {
		if err := history.Connect(context.Background()); err != nil {
			logger.Warnf("game history disabled: %v", err)
		} else {
			defer history.Close()
			logger.Info("game history recording enabled")
		}
	}
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("play log disabled: %v", err)
		} else {
			logger.Info("play log queue enabled")
		}
	}

	srv := handlers.NewServer(logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", http.HandlerFunc(handlers.WSHandler(logger, srv)))
	mux.Handle("/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListRoomsHandler(srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
