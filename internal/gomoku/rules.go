package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Placement - the board change produced by a successful move.
type Placement struct {
	Row   int
	Col   int
	Color string
}

// ApplyMove - places a stone for the given color and advances the session:
// the turn passes to the opponent, or the session finishes on a win or a
// full board. The session is left untouched on error.
func ApplyMove(session *entity.GameSession, color string, row, col int) (Placement, error) {
	if err := session.ConfirmOngoingState(); err != nil {
		return Placement{}, err
	}

	if session.Turn != color {
		return Placement{}, apperror.ErrNotYourTurn
	}

	if err := session.Board.Place(row, col, color); err != nil {
		return Placement{}, fmt.Errorf("invalid move: %w", err)
	}

	updateSessionStatus(session, row, col, color)

	return Placement{Row: row, Col: col, Color: color}, nil
}

// Resign - ends the session in favor of the resigning color's opponent.
func Resign(session *entity.GameSession, color string) error {
	if err := session.ConfirmOngoingState(); err != nil {
		return err
	}

	session.Finish(toggleColor(color), entity.ReasonResign)

	return nil
}

// updateSessionStatus - checks the session outcome after a move.
func updateSessionStatus(session *entity.GameSession, row, col int, color string) {
	switch {
	case session.Board.HasWinningLine(row, col):
		session.Finish(color, entity.ReasonWin)
	case session.Board.IsFull():
		session.Finish("", entity.ReasonDraw)
	default:
		session.Turn = toggleColor(color)
	}
}

func toggleColor(color string) string {
	if color == entity.ColorBlack {
		return entity.ColorWhite
	}

	return entity.ColorBlack
}
