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
	"mindease/internal/telegram"
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

	bot, err := telegram.New(cfg.TelegramBotToken, a.Service, a.Sessions)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot.Start(ctx)
}
