package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"urban-void/internal/api"
	"urban-void/internal/config"
	"urban-void/internal/game"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🕳️ ================================")
	log.Println("🕳️  URBAN VOID - ARENA SERVER")
	log.Println("🕳️ ================================")

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	simCfg := appConfig.Simulation
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %d TPS, %ds matches, arena ±%.0f, %d voids",
		simCfg.TickRate, appConfig.Match.Duration, appConfig.Arena.Boundary, len(appConfig.Match.Roster))

	engine := game.NewEngine(appConfig.EngineConfig())

	// Start event log
	eventLog := game.NewEventLog(appConfig.Journal.MaxEventsPerSec)
	if err := eventLog.Start(appConfig.Journal.Path); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if appConfig.Journal.Path != "" {
		log.Printf("📝 Event log: %s", appConfig.Journal.Path)
	}
	engine.SetEventLog(eventLog)

	// Start debug server
	if err := api.StartDebugServer(appConfig.Observability); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	server := api.NewServer(engine, api.ServerConfig{
		CORSOrigins: serverCfg.CORSOrigins,
		BroadcastHz: serverCfg.BroadcastHz,
		MinimapSize: serverCfg.MinimapSize,
	})

	// Push every swallow to live clients as it happens
	unsubscribe := engine.SubscribeGrowthEvents(func(ev game.GrowthEvent) {
		server.Hub().Broadcast("void:grow", ev)
	})

	loop := game.NewLoop(engine, simCfg.TickRate)
	loop.Start()

	if appConfig.Match.AutoStart {
		engine.Start()
	}

	addr := ":" + strconv.Itoa(serverCfg.Port)
	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Println("")
	log.Println("📋 To play:")
	log.Printf("   1. POST http://localhost%s/api/match/start", addr)
	log.Println("   2. Send {\"type\":\"aim\",\"x\":10,\"z\":-5} over /ws to steer")
	log.Printf("   3. Watch http://localhost%s/api/minimap.png", addr)
	log.Println("")

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	unsubscribe()
	loop.Stop()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}
