package protocol

import (
	"encoding/json"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Actions sent by clients. The server answers a request either with a message
// carrying the same action or with an error addressed to the sender only.
const (
	ActionPlayerNickname = "player:nickname"
	ActionRoomCreate     = "room:create"
	ActionRoomJoin       = "room:join"
	ActionRoomList       = "room:list"
	ActionRoomLeave      = "room:leave"
	ActionGameMove       = "game:move"
	ActionGameResign     = "game:resign"
)

// Actions pushed by the server without a client counterpart.
const (
	ActionRoomJoined  = "room:joined"
	ActionRoomLeft    = "room:left"
	ActionRoomClosed  = "room:closed"
	ActionGameStarted = "game:started"
	ActionGameOver    = "game:over"
	ActionError       = "error"
)

// Error codes carried by ActionError payloads.
const (
	CodeNotYourTurn      = "not_your_turn"
	CodeCellOccupied     = "cell_occupied"
	CodeOutOfBounds      = "out_of_bounds"
	CodeGameOver         = "game_over"
	CodeGameNotStarted   = "game_not_started"
	CodeRoomFull         = "room_full"
	CodeRoomNotFound     = "room_not_found"
	CodeAlreadyInRoom    = "already_in_room"
	CodeNotInRoom        = "not_in_room"
	CodeNicknameRequired = "nickname_required"
	CodeEmptyName        = "empty_name"
	CodeBadMessage       = "bad_message"
	CodeInternal         = "internal_error"
)

// Message - one protocol envelope; exactly one JSON object per line on the
// wire.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage - wraps a payload into an envelope.
func NewMessage(action string, payload any) *Message {
	if payload == nil {
		return &Message{Action: action}
	}

	return &Message{
		Action:  action,
		Payload: mustMarshal(payload),
	}
}

// NewError - builds an error reply for the sender.
func NewError(code, message string) *Message {
	return NewMessage(ActionError, ErrorPayload{Code: code, Message: message})
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return raw
}

type NicknamePayload struct {
	Name string `json:"name"`
}

type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID int64 `json:"room_id"`
}

type RoomJoinedPayload struct {
	RoomID   int64  `json:"room_id"`
	RoomName string `json:"room_name"`
	Color    string `json:"color"`
}

type RoomListPayload struct {
	Rooms []entity.RoomSummary `json:"rooms"`
}

// RoomLeftPayload names the player who departed.
type RoomLeftPayload struct {
	Name string `json:"name"`
}

type GameStartedPayload struct {
	BoardSize int    `json:"board_size"`
	Turn      string `json:"turn"`
	Black     string `json:"black"`
	White     string `json:"white"`
}

// MovePayload is both the client request (row, col) and the broadcast that
// confirms it (plus color and the next turn).
type MovePayload struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color,omitempty"`
	Turn  string `json:"turn,omitempty"`
}

type GameOverPayload struct {
	Reason     string `json:"reason"`
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winner_name,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
