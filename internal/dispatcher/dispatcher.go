package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

var (
	// ErrNicknameRequired is returned when a player tries to enter a room
	// before introducing themselves.
	ErrNicknameRequired = errors.New("nickname is required")

	// ErrEmptyNickname is returned when the announced nickname is blank.
	ErrEmptyNickname = errors.New("nickname is empty")

	// ErrMalformedPayload is returned when a payload does not decode.
	ErrMalformedPayload = errors.New("malformed payload")
)

// roomManager is the slice of the room manager the dispatcher drives.
type roomManager interface {
	Register(playerID string, sender usecase.Sender)
	Disconnect(playerID string)
	CreateRoom(playerID, nickname, roomName string) (int64, error)
	JoinRoom(playerID, nickname string, roomID int64) error
	LeaveRoom(playerID, reason string) error
	ListRooms() []entity.RoomSummary
	MakeMove(playerID string, row, col int) error
	Resign(playerID string) error
}

// Dispatcher - routes decoded client messages to room operations. A single
// instance serves every transport.
type Dispatcher struct {
	logger *slog.Logger
	rooms  roomManager

	handlers map[string]func(client *Client, message *protocol.Message) error
}

func New(logger *slog.Logger, rooms roomManager) *Dispatcher {
	dispatcher := &Dispatcher{
		logger: logger,
		rooms:  rooms,

		handlers: make(map[string]func(*Client, *protocol.Message) error),
	}

	dispatcher.handlers[protocol.ActionPlayerNickname] = dispatcher.handleNickname
	dispatcher.handlers[protocol.ActionRoomCreate] = dispatcher.handleCreateRoom
	dispatcher.handlers[protocol.ActionRoomJoin] = dispatcher.handleJoinRoom
	dispatcher.handlers[protocol.ActionRoomList] = dispatcher.handleListRooms
	dispatcher.handlers[protocol.ActionRoomLeave] = dispatcher.handleLeaveRoom
	dispatcher.handlers[protocol.ActionGameMove] = dispatcher.handleMove
	dispatcher.handlers[protocol.ActionGameResign] = dispatcher.handleResign

	return dispatcher
}

// Connect - announces a fresh connection to the room manager.
func (that *Dispatcher) Connect(client *Client) {
	that.rooms.Register(client.ID, client)
	that.logger.Info("player connected", "playerID", client.ID)
}

// Disconnect - runs the leave cascade and severs the client. Transports call
// this exactly once, after the read loop ends.
func (that *Dispatcher) Disconnect(client *Client) {
	that.rooms.Disconnect(client.ID)
	client.Close()
	that.logger.Info("player disconnected", "playerID", client.ID)
}

// Dispatch - decodes one wire message and runs its handler. Rule and room
// violations are reported back to the sender; they never end the connection.
func (that *Dispatcher) Dispatch(client *Client, raw []byte) {
	log := that.logger.With("method", "Dispatch")

	var message protocol.Message
	if err := json.Unmarshal(raw, &message); err != nil {
		log.Warn("failed to unmarshal message", "playerID", client.ID, "error", err)
		client.Send(protocol.NewError(protocol.CodeBadMessage, "malformed message"))

		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		client.Send(protocol.NewError(protocol.CodeBadMessage, fmt.Sprintf("unknown action %q", message.Action)))

		return
	}

	if err := handler(client, &message); err != nil {
		that.sendError(client, err)
	}
}

func (that *Dispatcher) handleNickname(client *Client, message *protocol.Message) error {
	var payload protocol.NicknamePayload
	if err := unmarshalPayload(message, &payload); err != nil {
		return err
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return ErrEmptyNickname
	}

	client.Nickname = name
	client.Send(protocol.NewMessage(protocol.ActionPlayerNickname, protocol.NicknamePayload{Name: name}))

	that.logger.Info("nickname set", "playerID", client.ID, "nickname", name)

	return nil
}

func (that *Dispatcher) handleCreateRoom(client *Client, message *protocol.Message) error {
	if client.Nickname == "" {
		return ErrNicknameRequired
	}

	var payload protocol.CreateRoomPayload
	if err := unmarshalPayload(message, &payload); err != nil {
		return err
	}

	if _, err := that.rooms.CreateRoom(client.ID, client.Nickname, payload.Name); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (that *Dispatcher) handleJoinRoom(client *Client, message *protocol.Message) error {
	if client.Nickname == "" {
		return ErrNicknameRequired
	}

	var payload protocol.JoinRoomPayload
	if err := unmarshalPayload(message, &payload); err != nil {
		return err
	}

	if err := that.rooms.JoinRoom(client.ID, client.Nickname, payload.RoomID); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (that *Dispatcher) handleListRooms(client *Client, _ *protocol.Message) error {
	rooms := that.rooms.ListRooms()
	client.Send(protocol.NewMessage(protocol.ActionRoomList, protocol.RoomListPayload{Rooms: rooms}))

	return nil
}

func (that *Dispatcher) handleLeaveRoom(client *Client, _ *protocol.Message) error {
	if err := that.rooms.LeaveRoom(client.ID, usecase.LeaveVoluntary); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

func (that *Dispatcher) handleMove(client *Client, message *protocol.Message) error {
	var payload protocol.MovePayload
	if err := unmarshalPayload(message, &payload); err != nil {
		return err
	}

	if err := that.rooms.MakeMove(client.ID, payload.Row, payload.Col); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Dispatcher) handleResign(client *Client, _ *protocol.Message) error {
	if err := that.rooms.Resign(client.ID); err != nil {
		return fmt.Errorf("failed to resign: %w", err)
	}

	return nil
}

// errorCodes maps operation failures onto wire error codes.
var errorCodes = []struct {
	match error
	code  string
}{
	{apperror.ErrNotYourTurn, protocol.CodeNotYourTurn},
	{apperror.ErrCellOccupied, protocol.CodeCellOccupied},
	{apperror.ErrOutOfBounds, protocol.CodeOutOfBounds},
	{apperror.ErrGameFinished, protocol.CodeGameOver},
	{apperror.ErrGameIsNotStarted, protocol.CodeGameNotStarted},
	{apperror.ErrRoomFull, protocol.CodeRoomFull},
	{apperror.ErrRoomNotFound, protocol.CodeRoomNotFound},
	{apperror.ErrAlreadyInRoom, protocol.CodeAlreadyInRoom},
	{apperror.ErrNotInRoom, protocol.CodeNotInRoom},
	{usecase.ErrEmptyRoomName, protocol.CodeEmptyName},
	{ErrNicknameRequired, protocol.CodeNicknameRequired},
	{ErrEmptyNickname, protocol.CodeEmptyName},
	{ErrMalformedPayload, protocol.CodeBadMessage},
}

// sendError - reports a failed operation to the sender only. Anything without
// a mapped code is a server-side defect and is logged as such.
func (that *Dispatcher) sendError(client *Client, err error) {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.match) {
			client.Send(protocol.NewError(entry.code, entry.match.Error()))

			return
		}
	}

	that.logger.Error("unexpected error", "playerID", client.ID, "error", err)
	client.Send(protocol.NewError(protocol.CodeInternal, "internal error"))
}

func unmarshalPayload(message *protocol.Message, target any) error {
	if err := json.Unmarshal(message.Payload, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return nil
}
