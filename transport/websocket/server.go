package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/dispatcher"
)

const shutdownTimeout = 5 * time.Second

// Server - serves the wire protocol over WebSocket for browser clients. Each
// text frame carries one message, same JSON as the TCP listener.
type Server struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, dispatcher *dispatcher.Dispatcher) *Server {
	return &Server{
		logger:     logger,
		dispatcher: dispatcher,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Start - starts the WebSocket server and blocks until the context is
// canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(writer http.ResponseWriter, req *http.Request) {
		that.upgrade(ctx, writer, req)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgrade - upgrades the request and owns the connection for its lifetime.
func (that *Server) upgrade(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("component", "websocket", "remote", req.RemoteAddr)

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)

		return
	}

	client := dispatcher.NewClient()

	defer func() {
		that.dispatcher.Disconnect(client)

		if closeErr := conn.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			log.Debug("failed to close connection", "error", closeErr)
		}
	}()

	// Unblocks the reader when the client is dropped or the app stops.
	go func() {
		select {
		case <-ctx.Done():
		case <-client.Done():
		}

		conn.Close()
	}()

	go that.writeLoop(client, conn)

	that.dispatcher.Connect(client)

	log.Info("connection opened", "playerID", client.ID)

	for {
		messageType, raw, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection read failed", "playerID", client.ID, "error", readErr)
			}

			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		that.dispatcher.Dispatch(client, raw)
	}

	log.Info("connection closed", "playerID", client.ID)
}

// writeLoop - drains the client outbox onto the socket, one frame per
// message.
func (that *Server) writeLoop(client *dispatcher.Client, conn *websocket.Conn) {
	for {
		select {
		case <-client.Done():
			return
		case message := <-client.Outbox():
			if err := conn.WriteJSON(message); err != nil {
				client.Close()

				return
			}
		}
	}
}
