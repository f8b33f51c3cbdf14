package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

// Session - the game a single client is playing. It is owned by exactly one caller
// (a connection) and is not safe for concurrent use.
type Session struct {
	ID      string
	Board   entity.Board
	OwnerID string

	// Recorded is the one-shot token: set once the finished game was handed to the recorder.
	Recorded bool
	// ReadOnly marks a historical board opened for preview. Such boards are never recorded.
	ReadOnly bool
}

func NewSession(id, ownerID string) *Session {
	return &Session{
		ID:      id,
		OwnerID: ownerID,
	}
}

func (that *Session) Outcome() entity.Outcome {
	return EvaluateOutcome(that.Board)
}

// NextMark - the mark to move, empty once the game is over.
func (that *Session) NextMark() entity.Mark {
	if !that.Outcome().IsInProgress() {
		return entity.MarkEmpty
	}
	return that.Board.NextMark()
}

// Play - applies a click on cell. Rejected clicks leave the session untouched.
func (that *Session) Play(cell int) (entity.Outcome, error) {
	if that.ReadOnly {
		return that.Outcome(), apperror.ErrReadOnly
	}

	board, err := ApplyMove(that.Board, cell)
	if err != nil {
		return that.Outcome(), err
	}

	that.Board = board

	return that.Outcome(), nil
}

// ClaimRecord - hands out the record of a finished game at most once per board.
// CreatedAt is left for the recorder to stamp.
func (that *Session) ClaimRecord() (entity.GameRecord, bool) {
	if that.ReadOnly || that.Recorded {
		return entity.GameRecord{}, false
	}

	outcome := that.Outcome()
	if !outcome.IsTerminal() {
		return entity.GameRecord{}, false
	}

	that.Recorded = true

	return entity.GameRecord{
		Board:   that.Board,
		Winner:  outcome.Winner,
		OwnerID: that.OwnerID,
	}, true
}

// Reset - starts over with an empty board.
func (that *Session) Reset() {
	that.Board = entity.Board{}
	that.Recorded = false
	that.ReadOnly = false
}

// Preview - shows a stored game. The board stays read-only until the next Reset.
func (that *Session) Preview(record entity.GameRecord) {
	that.Board = record.Board
	that.ReadOnly = true
}
