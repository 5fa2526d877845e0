package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
)

const (
	ReasonWin    = "win"
	ReasonResign = "resign"
	ReasonDraw   = "draw"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// GameSession - one game of gomoku between the two occupants of a room.
// Black always belongs to the first occupant and always moves first.
type GameSession struct {
	Board   *Board    `json:"board"`
	Players []*Player `json:"players,omitempty"`
	Turn    string    `json:"turn"`
	Status  string    `json:"status"`
	Winner  string    `json:"winner,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

func NewGameSession(black, white *Player, boardSize int) (*GameSession, error) {
	board, err := NewBoard(boardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	black.Color = ColorBlack
	white.Color = ColorWhite

	return &GameSession{
		Board:   board,
		Players: []*Player{black, white},
		Turn:    ColorBlack,
		Status:  StatusOngoing,
	}, nil
}

func (that *GameSession) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *GameSession) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *GameSession) ConfirmOngoingState() error {
	switch {
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

// Finish - moves the session into its terminal state. Winner is a color, or
// empty for a draw. The terminal state is never overwritten.
func (that *GameSession) Finish(winner, reason string) {
	that.Status = StatusFinished
	that.Winner = winner
	that.Reason = reason
	that.Turn = ""
}

func (that *GameSession) PlayerByColor(color string) *Player {
	for _, player := range that.Players {
		if player.Color == color {
			return player
		}
	}

	return nil
}
