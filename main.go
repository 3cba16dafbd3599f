package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/example/chatroom-demo/config"
	"github.com/example/chatroom-demo/modules/activity"
	"github.com/example/chatroom-demo/modules/api"
	"github.com/example/chatroom-demo/modules/broadcast"
	"github.com/example/chatroom-demo/modules/chat"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Chat Rooms - Fiber WebSocket + EventBus ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	broadcastModule := broadcast.NewModule(logger.WithModule("broadcast"), broadcast.WithSendBuffer(cfg.SendBuffer))
	chatModule := chat.NewModule(chat.Config{
		Rooms:       cfg.Rooms,
		MaxHistory:  cfg.MaxHistory,
		StrictRooms: cfg.StrictRooms,
	}, broadcastModule.GetHub(), logger.WithModule("chat"))
	activityModule := activity.NewModule(logger.WithModule("activity"))
	apiModule := api.NewModule(api.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.ClientURL,
		MaxMessageSize: cfg.MaxMessageSize,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	}, logger.WithModule("api"))

	// The hub and the session handler are not exposed via ServiceContainer.
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetSessions(chatModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - broadcast: connection hub (per-client send queues)
	// - chat: rooms, sessions and fan-out (ServiceProviderModule + EventEmitterModule)
	// - activity: per-room counters (EventConsumerModule)
	// - api: driving adapter (Fiber HTTP/WebSocket server, depends on chat)
	app.Register(broadcastModule)
	app.Register(chatModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Rooms: %s", strings.Join(cfg.Rooms, ", "))
	if cfg.StrictRooms {
		log.Println("Strict rooms: unknown rooms are rejected, sends are acknowledged")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                 - Health check")
	log.Println("  GET    /rooms                  - List room names")
	log.Println("  GET    /rooms/:name/messages   - Get a room's messages")
	log.Println("  GET    /api/v1/rooms           - Room message and member counts")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println(`  Client -> server: {"type":"join_room","data":"General"}`)
	log.Println(`                    {"type":"send_message","data":{"room":"General","user":"alice","text":"hi"}}`)
	log.Println("  Server -> client: initial_messages, receive_message, message_ack, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
