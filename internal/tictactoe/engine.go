package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

// WinCombos - rows, columns, then diagonals. The order is fixed.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// EvaluateOutcome - derives the game status from the board alone.
func EvaluateOutcome(board entity.Board) entity.Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.MarkEmpty && a == b && b == c {
			return entity.Win(a)
		}
	}

	if board.IsFull() {
		return entity.Draw()
	}

	return entity.InProgress()
}

// ApplyMove - places the next mark at cell and returns the new board.
// On error the given board is returned as is.
func ApplyMove(board entity.Board, cell int) (entity.Board, error) {
	if err := validateMove(board, cell); err != nil {
		return board, err
	}

	board[cell] = board.NextMark()

	return board, nil
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, cell int) error {
	if cell < 0 || cell >= len(board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if !EvaluateOutcome(board).IsInProgress() {
		return apperror.ErrGameFinished
	}

	if board[cell] != entity.MarkEmpty {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}
