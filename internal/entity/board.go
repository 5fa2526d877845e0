package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	ColorBlack = "black"
	ColorWhite = "white"

	EmptyCell = ""
)

const (
	// MinBoardSize is the smallest board a winning line still fits on.
	MinBoardSize = 5

	// WinLength is how many contiguous stones of one color make a win.
	WinLength = 5
)

var ErrInvalidBoardSize = errors.New("invalid board size")

// directions are the four axes a winning line can lie on; each one is walked
// forward and backward from the placed stone.
var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

type Board struct {
	Size  int        `json:"size"`
	Cells [][]string `json:"cells"`
}

func NewBoard(size int) (*Board, error) {
	if size < MinBoardSize {
		return nil, fmt.Errorf("%w: %d, need at least %d", ErrInvalidBoardSize, size, MinBoardSize)
	}

	cells := make([][]string, size)
	for i := range cells {
		cells[i] = make([]string, size)
	}

	return &Board{Size: size, Cells: cells}, nil
}

// Place - puts a stone on the board; the board is left untouched on error.
func (that *Board) Place(row, col int, color string) error {
	if !that.inBounds(row, col) {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrOutOfBounds, row, col)
	}

	if that.Cells[row][col] != EmptyCell {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOccupied, row, col)
	}

	that.Cells[row][col] = color

	return nil
}

// HasWinningLine - reports whether the stone at (row, col) sits on a line of
// at least WinLength stones of its color.
func (that *Board) HasWinningLine(row, col int) bool {
	color := that.Cells[row][col]
	if color == EmptyCell {
		return false
	}

	for _, direction := range directions {
		count := 1
		count += that.countRun(row, col, direction[0], direction[1], color)
		count += that.countRun(row, col, -direction[0], -direction[1], color)

		if count >= WinLength {
			return true
		}
	}

	return false
}

// IsFull - reports whether no empty cell remains.
func (that *Board) IsFull() bool {
	for _, row := range that.Cells {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

func (that *Board) countRun(row, col, dRow, dCol int, color string) int {
	count := 0
	for r, c := row+dRow, col+dCol; that.inBounds(r, c) && that.Cells[r][c] == color; r, c = r+dRow, c+dCol {
		count++
	}

	return count
}

func (that *Board) inBounds(row, col int) bool {
	return row >= 0 && row < that.Size && col >= 0 && col < that.Size
}
