package tcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/rocketscienceinc/gomoku-backend/internal/dispatcher"
)

// maxLineSize bounds a single wire message.
const maxLineSize = 64 * 1024

// Server - the newline delimited JSON listener. Every accepted connection
// gets a reader and a writer goroutine; the dispatcher does the rest.
type Server struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
}

func New(logger *slog.Logger, dispatcher *dispatcher.Dispatcher) *Server {
	return &Server{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Start - listens on addr and serves until the context is canceled.
func (that *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections until the listener closes or the context is
// canceled.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("component", "tcp")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Info("accepting connections", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConn(ctx, conn)
	}
}

// handleConn - owns one connection for its lifetime. The reader drives the
// dispatcher; disconnect handling runs before the connection is released.
func (that *Server) handleConn(ctx context.Context, conn net.Conn) {
	log := that.logger.With("component", "tcp", "remote", conn.RemoteAddr().String())

	client := dispatcher.NewClient()

	defer func() {
		that.dispatcher.Disconnect(client)

		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debug("failed to close connection", "error", err)
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

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		that.dispatcher.Dispatch(client, line)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn("connection read failed", "playerID", client.ID, "error", err)
	}

	log.Info("connection closed", "playerID", client.ID)
}

// writeLoop - drains the client outbox onto the socket, one goroutine per
// connection. Encode appends the newline that frames each message.
func (that *Server) writeLoop(client *dispatcher.Client, conn net.Conn) {
	encoder := json.NewEncoder(conn)

	for {
		select {
		case <-client.Done():
			return
		case message := <-client.Outbox():
			if err := encoder.Encode(message); err != nil {
				client.Close()

				return
			}
		}
	}
}
