// echoserver is a local WebSocket echo service: every text frame received
// is written back to the sender unchanged. It stands in for the public echo
// endpoint so the feed can run fully offline.
//
// Usage: go run ./cmd/echoserver --addr :8765
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdrew/stockfeed/internal/version"
)

func main() {
	addr := flag.String("addr", ":8765", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting echoserver",
		"version", version.Version,
		"addr", *addr,
	)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var nextConnID atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()

		id := nextConnID.Add(1)
		logger.Info("client connected", "conn", id, "remote", r.RemoteAddr)

		var frames int64
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Info("client disconnected", "conn", id, "frames", frames, "error", err)
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				logger.Warn("echo write failed", "conn", id, "error", err)
				return
			}
			frames++
		}
	})

	server := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("echoserver stopped")
}
