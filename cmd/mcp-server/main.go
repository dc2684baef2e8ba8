package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mindease/internal/app"
	"mindease/internal/config"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	a, err := app.New(config.New())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer a.Close()

	log.Printf("🚀 Starting MindEase MCP Server")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mindease-mcp",
		Version: "1.0.0",
	}, nil)

	mindease := NewMindEaseMCPServer(a.Service, a.Sessions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mindease_chat",
		Description: "Sends a message to MindEase in the given session and returns the supportive reply",
	}, mindease.Chat)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mindease_history",
		Description: "Returns the role-tagged conversation history of a session",
	}, mindease.History)

	log.Printf("📋 Registered %d tools: mindease_chat, mindease_history", 2)
	log.Printf("🔗 Starting server on stdin/stdout...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		log.Printf("❌ Server failed: %v", err)
	}
}
