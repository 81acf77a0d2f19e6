package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"inkboard-relay-server/domain"
	"inkboard-relay-server/event"
	"inkboard-relay-server/protocol"
	"inkboard-relay-server/relay"
	ws "inkboard-relay-server/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := ws.Config{
		Addr:     ":" + port,
		MsgRate:  rate.Limit(envInt("WS_MSG_RATE", 100)),
		MsgBurst: envInt("WS_MSG_BURST", 200),
	}

	if os.Getenv("LOG_LEVEL") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	transport := ws.NewTransport(cfg, protocol.NewDecoder())
	notifier := event.NewNotifier()
	server := relay.New(transport, notifier)

	// Whiteboard behavior: everything a client draws goes to everyone else.
	notifier.OnClientMessage(func(in domain.Inbound) {
		if err := server.BroadcastToAllClientsButOne(in.ClientID, in.Message); err != nil {
			slog.Warn("relay failed", "clientId", in.ClientID, "message", in.Message.Name(), "error", err)
		}
	})
	notifier.OnClientDisconnect(func(clientID string) {
		if server.NumberOfActiveConnections() == 0 {
			return
		}
		if err := server.BroadcastToAllClients(protocol.NewMessage(protocol.PointerRemove, map[string]string{"id": clientID})); err != nil {
			slog.Warn("pointer cleanup failed", "clientId", clientID, "error", err)
		}
	})

	if err := server.Start(); err != nil {
		slog.Error("server start failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server started", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid value, using default", "key", key, "value", v)
		return def
	}
	return n
}
