package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

const BoardSize = 9

var ErrMalformedBoard = errors.New("malformed board")

// Board - a 3x3 grid stored row by row. It is a value: every move produces a new Board.
type Board [BoardSize]Mark

// NextMark - returns the mark that moves next. X moves first and turns strictly alternate.
func (that Board) NextMark() Mark {
	if that.Count(MarkX) > that.Count(MarkO) {
		return MarkO
	}
	return MarkX
}

func (that Board) Count(mark Mark) int {
	var n int
	for _, cell := range that {
		if cell == mark {
			n++
		}
	}
	return n
}

func (that Board) IsFull() bool {
	return that.Count(MarkEmpty) == 0
}

// MarshalJSON - empty cells are written as null, the layout stored documents use.
func (that Board) MarshalJSON() ([]byte, error) {
	squares := make([]*string, BoardSize)
	for i, cell := range that {
		if cell == MarkEmpty {
			continue
		}
		value := string(cell)
		squares[i] = &value
	}

	return json.Marshal(squares)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var squares []*string
	if err := json.Unmarshal(data, &squares); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBoard, err)
	}

	if len(squares) != BoardSize {
		return fmt.Errorf("%w: expected %d squares, got %d", ErrMalformedBoard, BoardSize, len(squares))
	}

	var board Board
	for i, square := range squares {
		if square == nil {
			continue
		}

		switch mark := Mark(*square); mark {
		case MarkX, MarkO, MarkEmpty:
			board[i] = mark
		default:
			return fmt.Errorf("%w: unknown mark %q at %d", ErrMalformedBoard, *square, i)
		}
	}

	*that = board

	return nil
}
