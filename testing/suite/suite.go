package suite

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/dispatcher"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/tcp"
)

const (
	maxWaitDuration = 120 * time.Second
	recvTimeout     = 5 * time.Second

	boardSize       = 15
	finishedRoomTTL = time.Minute
)

// Suite boots the full stack on a loopback listener and hands tests a way
// to dial it.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Addr string
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry := repository.NewRoomRegistry()

	manager, err := usecase.NewRoomManager(logger, registry, boardSize, finishedRoomTTL)
	if err != nil {
		t.Fatalf("could not build room manager: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not listen on loopback: %v", err)
	}

	server := tcp.New(logger, dispatcher.New(logger, manager))

	go func() {
		if serveErr := server.Serve(ctx, listener); serveErr != nil {
			logger.Error("tcp server stopped", "error", serveErr)
		}
	}()

	return ctx, &Suite{
		T:      t,
		Logger: logger,
		Addr:   listener.Addr().String(),
	}
}

// Dial - opens a wire protocol connection to the suite's server.
func (that *Suite) Dial() *Client {
	that.Helper()

	conn, err := net.Dial("tcp", that.Addr)
	if err != nil {
		that.Fatalf("could not dial %s: %v", that.Addr, err)
	}

	that.Cleanup(func() {
		_ = conn.Close()
	})

	return &Client{
		t:       that.T,
		conn:    conn,
		scanner: bufio.NewScanner(conn),
	}
}

// Client is one side of a newline delimited JSON conversation.
type Client struct {
	t       *testing.T
	conn    net.Conn
	scanner *bufio.Scanner
}

// Send - writes one action with its payload.
func (that *Client) Send(action string, payload any) {
	that.t.Helper()

	raw, err := json.Marshal(protocol.NewMessage(action, payload))
	if err != nil {
		that.t.Fatalf("could not marshal message: %v", err)
	}

	that.SendRaw(string(raw))
}

// SendRaw - writes one line as-is, for exercising the decoder with bad input.
func (that *Client) SendRaw(line string) {
	that.t.Helper()

	if _, err := that.conn.Write([]byte(line + "\n")); err != nil {
		that.t.Fatalf("could not write message: %v", err)
	}
}

// Recv - reads the next message, failing the test if none arrives in time.
func (that *Client) Recv() *protocol.Message {
	that.t.Helper()

	if err := that.conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		that.t.Fatalf("could not set read deadline: %v", err)
	}

	if !that.scanner.Scan() {
		that.t.Fatalf("no message arrived: %v", that.scanner.Err())
	}

	var message protocol.Message
	if err := json.Unmarshal(that.scanner.Bytes(), &message); err != nil {
		that.t.Fatalf("could not unmarshal %q: %v", that.scanner.Bytes(), err)
	}

	return &message
}

// RecvAction - reads messages until one with the wanted action arrives.
func (that *Client) RecvAction(action string) *protocol.Message {
	that.t.Helper()

	for {
		message := that.Recv()
		if message.Action == action {
			return message
		}
	}
}

// Close - ends the conversation from the client side.
func (that *Client) Close() {
	_ = that.conn.Close()
}
