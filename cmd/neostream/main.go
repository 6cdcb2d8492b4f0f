// Package main runs the neostream payment stream service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/R3E-Network/neostream/internal/app/runtime"
)

func main() {
	_ = godotenv.Load() // allow .env for local runs

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := runtime.NewApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Service stopped")
}
