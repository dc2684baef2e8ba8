package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mindease/internal/app"
	"mindease/internal/config"
	"mindease/internal/web"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer a.Close()
	a.StartReports()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.New(a.Service, a.Sessions, a.Model)
	if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
		log.Printf("❌ web server stopped: %v", err)
	}
}
