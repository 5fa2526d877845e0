package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

var ErrEmptyRoomName = errors.New("room name is empty")

// Reasons an occupant leaves a room.
const (
	LeaveVoluntary    = "voluntary"
	LeaveDisconnected = "disconnected"
)

// Sender - delivers one message to a connected player. Implementations must
// not block; a slow consumer is the transport's problem, not the room's.
type Sender interface {
	Send(message *protocol.Message)
}

type roomRegistry interface {
	NextID() int64
	Add(room *entity.Room)
	GetByID(id int64) (*entity.Room, error)
	List() []*entity.Room
	DeleteByID(id int64)
}

// RoomManager - orchestrates the lobby and every room in it. Game and room
// events are pushed to the occupants while the room lock is held, so each
// connection observes them in mutation order.
type RoomManager struct {
	logger *slog.Logger

	boardSize   int
	finishedTTL time.Duration

	registry roomRegistry

	connectionsMutex sync.RWMutex
	connections      map[string]Sender

	playerRoomMutex sync.RWMutex
	playerRoom      map[string]int64
}

func NewRoomManager(logger *slog.Logger, registry roomRegistry, boardSize int, finishedTTL time.Duration) (*RoomManager, error) {
	if boardSize < entity.MinBoardSize {
		return nil, fmt.Errorf("%w: %d, need at least %d", entity.ErrInvalidBoardSize, boardSize, entity.MinBoardSize)
	}

	return &RoomManager{
		logger: logger,

		boardSize:   boardSize,
		finishedTTL: finishedTTL,

		registry: registry,

		connections: make(map[string]Sender),
		playerRoom:  make(map[string]int64),
	}, nil
}

// Register - makes a connected player reachable for room broadcasts.
func (that *RoomManager) Register(playerID string, sender Sender) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = sender
	that.connectionsMutex.Unlock()
}

func (that *RoomManager) Unregister(playerID string) {
	that.connectionsMutex.Lock()
	delete(that.connections, playerID)
	that.connectionsMutex.Unlock()
}

// CreateRoom - opens a room with the creator as its first occupant and tells
// them they joined as black. The room becomes visible to the lobby before the
// creator releases its lock, so no join can slip in ahead of the confirmation.
func (that *RoomManager) CreateRoom(playerID, nickname, roomName string) (int64, error) {
	log := that.logger.With("method", "CreateRoom")

	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return 0, ErrEmptyRoomName
	}

	if roomID, ok := that.currentRoom(playerID); ok {
		return 0, fmt.Errorf("%w: room %d", apperror.ErrAlreadyInRoom, roomID)
	}

	room := entity.NewRoom(that.registry.NextID(), roomName)

	room.Lock()
	defer room.Unlock()

	room.Occupants = append(room.Occupants, &entity.Player{ID: playerID, Nickname: nickname})
	room.RefreshSummary()
	that.registry.Add(room)
	that.setCurrentRoom(playerID, room.ID)

	that.push(playerID, protocol.NewMessage(protocol.ActionRoomJoined, protocol.RoomJoinedPayload{
		RoomID:   room.ID,
		RoomName: room.Name,
		Color:    entity.ColorBlack,
	}))

	log.Info("room created", "roomID", room.ID, "name", room.Name, "playerID", playerID)

	return room.ID, nil
}

// JoinRoom - seats the player in the room; the second occupant completes the
// pair and starts the game, black moving first.
func (that *RoomManager) JoinRoom(playerID, nickname string, roomID int64) error {
	log := that.logger.With("method", "JoinRoom")

	if current, ok := that.currentRoom(playerID); ok {
		return fmt.Errorf("%w: room %d", apperror.ErrAlreadyInRoom, current)
	}

	room, err := that.registry.GetByID(roomID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	// a room emptied or swept between lookup and lock is as good as gone
	if room.IsEmpty() {
		return fmt.Errorf("%w: id %d", apperror.ErrRoomNotFound, roomID)
	}

	if room.IsFull() {
		return fmt.Errorf("%w: room %d", apperror.ErrRoomFull, roomID)
	}

	room.Occupants = append(room.Occupants, &entity.Player{ID: playerID, Nickname: nickname})
	that.setCurrentRoom(playerID, roomID)

	that.push(playerID, protocol.NewMessage(protocol.ActionRoomJoined, protocol.RoomJoinedPayload{
		RoomID:   room.ID,
		RoomName: room.Name,
		Color:    entity.ColorWhite,
	}))

	if room.IsFull() {
		if err := that.startGame(room); err != nil {
			return fmt.Errorf("failed to start game: %w", err)
		}
	}

	room.RefreshSummary()

	log.Info("player joined room", "roomID", room.ID, "playerID", playerID)

	return nil
}

// startGame - begins a fresh session for the two occupants; call while
// holding the room lock. Joining a finished room restarts the board.
func (that *RoomManager) startGame(room *entity.Room) error {
	session, err := entity.NewGameSession(room.Occupants[0], room.Occupants[1], that.boardSize)
	if err != nil {
		return err
	}

	room.Session = session
	room.FinishedAt = time.Time{}

	that.broadcast(room, protocol.NewMessage(protocol.ActionGameStarted, protocol.GameStartedPayload{
		BoardSize: session.Board.Size,
		Turn:      session.Turn,
		Black:     room.Occupants[0].Nickname,
		White:     room.Occupants[1].Nickname,
	}))

	that.logger.Info("game started", "roomID", room.ID)

	return nil
}

// ListRooms - snapshots the lobby without touching any room's operation lock.
func (that *RoomManager) ListRooms() []entity.RoomSummary {
	rooms := that.registry.List()

	summaries := make([]entity.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	return summaries
}

// MakeMove - validates and applies one stone placement, then broadcasts the
// new position and, when the move ends the game, the outcome.
func (that *RoomManager) MakeMove(playerID string, row, col int) error {
	room, err := that.roomOf(playerID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	player := room.OccupantByID(playerID)
	if player == nil {
		that.clearCurrentRoom(playerID)
		return apperror.ErrNotInRoom
	}

	if room.Session == nil {
		return apperror.ErrGameIsNotStarted
	}

	placement, err := gomoku.ApplyMove(room.Session, player.Color, row, col)
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.broadcast(room, protocol.NewMessage(protocol.ActionGameMove, protocol.MovePayload{
		Row:   placement.Row,
		Col:   placement.Col,
		Color: placement.Color,
		Turn:  room.Session.Turn,
	}))

	if room.Session.IsFinished() {
		that.finishRoom(room)
	}

	room.RefreshSummary()

	return nil
}

// Resign - concedes the game to the opponent.
func (that *RoomManager) Resign(playerID string) error {
	room, err := that.roomOf(playerID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	player := room.OccupantByID(playerID)
	if player == nil {
		that.clearCurrentRoom(playerID)
		return apperror.ErrNotInRoom
	}

	if room.Session == nil {
		return apperror.ErrGameIsNotStarted
	}

	if err := gomoku.Resign(room.Session, player.Color); err != nil {
		return fmt.Errorf("failed to resign: %w", err)
	}

	that.finishRoom(room)
	room.RefreshSummary()

	return nil
}

// LeaveRoom - removes the player from their room. Leaving a game in progress
// counts as resignation regardless of the reason; an emptied room is deleted.
func (that *RoomManager) LeaveRoom(playerID, reason string) error {
	log := that.logger.With("method", "LeaveRoom")

	room, err := that.roomOf(playerID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	leaver := room.OccupantByID(playerID)
	if leaver == nil {
		that.clearCurrentRoom(playerID)
		return apperror.ErrNotInRoom
	}

	room.RemoveOccupant(playerID)
	that.clearCurrentRoom(playerID)

	left := protocol.NewMessage(protocol.ActionRoomLeft, protocol.RoomLeftPayload{Name: leaver.Nickname})
	that.push(playerID, left)
	that.broadcast(room, left)

	if room.Session != nil && room.Session.IsOngoing() {
		if err := gomoku.Resign(room.Session, leaver.Color); err != nil {
			log.Error("failed to resign leaving player", "playerID", playerID, "error", err)
		} else {
			that.finishRoom(room)
		}
	}

	if room.IsEmpty() {
		that.registry.DeleteByID(room.ID)
		log.Info("room deleted", "roomID", room.ID)
		return nil
	}

	room.RefreshSummary()

	log.Info("player left room", "roomID", room.ID, "playerID", playerID, "reason", reason)

	return nil
}

// Disconnect - runs the leave cascade for a dropped connection, then forgets
// it. A disconnect in the middle of a game resigns it.
func (that *RoomManager) Disconnect(playerID string) {
	log := that.logger.With("method", "Disconnect")

	err := that.LeaveRoom(playerID, LeaveDisconnected)
	if err != nil && !errors.Is(err, apperror.ErrNotInRoom) && !errors.Is(err, apperror.ErrRoomNotFound) {
		log.Error("failed to leave room on disconnect", "playerID", playerID, "error", err)
	}

	that.Unregister(playerID)

	log.Info("player disconnected", "playerID", playerID)
}

// RunCleanup - periodically closes rooms whose game finished more than the
// grace period ago, so abandoned rooms do not pile up in the lobby.
func (that *RoomManager) RunCleanup(ctx context.Context, interval time.Duration) {
	log := that.logger.With("method", "RunCleanup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("cleanup stopped")
			return
		case <-ticker.C:
			that.CloseExpiredRooms(time.Now())
		}
	}
}

// CloseExpiredRooms - evicts the occupants of every expired room and removes
// the room from the lobby.
func (that *RoomManager) CloseExpiredRooms(now time.Time) {
	log := that.logger.With("method", "CloseExpiredRooms")

	for _, room := range that.registry.List() {
		room.Lock()

		if !room.IsExpired(that.finishedTTL, now) {
			room.Unlock()
			continue
		}

		closed := protocol.NewMessage(protocol.ActionRoomClosed, nil)
		for _, occupant := range room.Occupants {
			that.clearCurrentRoom(occupant.ID)
			that.push(occupant.ID, closed)
		}
		room.Occupants = nil

		room.Unlock()

		that.registry.DeleteByID(room.ID)

		log.Info("expired room closed", "roomID", room.ID)
	}
}

// finishRoom - records when the game ended and announces the outcome; call
// while holding the room lock.
func (that *RoomManager) finishRoom(room *entity.Room) {
	log := that.logger.With("method", "finishRoom")

	room.FinishedAt = time.Now()

	session := room.Session
	payload := protocol.GameOverPayload{
		Reason: session.Reason,
		Winner: session.Winner,
	}
	if winner := session.PlayerByColor(session.Winner); winner != nil {
		payload.WinnerName = winner.Nickname
	}

	that.broadcast(room, protocol.NewMessage(protocol.ActionGameOver, payload))

	log.Info("game finished", "roomID", room.ID, "reason", session.Reason, "winner", session.Winner)
}

// roomOf - resolves the player's current room, healing the index if the room
// has already been swept away.
func (that *RoomManager) roomOf(playerID string) (*entity.Room, error) {
	roomID, ok := that.currentRoom(playerID)
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	room, err := that.registry.GetByID(roomID)
	if err != nil {
		that.clearCurrentRoom(playerID)
		return nil, err
	}

	return room, nil
}

// broadcast - pushes a message to every occupant; call while holding the room
// lock so events land in the outboxes in mutation order.
func (that *RoomManager) broadcast(room *entity.Room, message *protocol.Message) {
	for _, occupant := range room.Occupants {
		that.push(occupant.ID, message)
	}
}

func (that *RoomManager) push(playerID string, message *protocol.Message) {
	that.connectionsMutex.RLock()
	sender, ok := that.connections[playerID]
	that.connectionsMutex.RUnlock()

	if !ok {
		that.logger.Warn("connection not found for player", "playerID", playerID)
		return
	}

	sender.Send(message)
}

func (that *RoomManager) currentRoom(playerID string) (int64, bool) {
	that.playerRoomMutex.RLock()
	defer that.playerRoomMutex.RUnlock()

	roomID, ok := that.playerRoom[playerID]

	return roomID, ok
}

func (that *RoomManager) setCurrentRoom(playerID string, roomID int64) {
	that.playerRoomMutex.Lock()
	that.playerRoom[playerID] = roomID
	that.playerRoomMutex.Unlock()
}

func (that *RoomManager) clearCurrentRoom(playerID string) {
	that.playerRoomMutex.Lock()
	delete(that.playerRoom, playerID)
	that.playerRoomMutex.Unlock()
}
