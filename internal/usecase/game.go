package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/tictactoe"
)

const resultDraw = "draw"

type GameUseCase interface {
	NewSession(ownerID string) *tictactoe.Session

	MakeTurn(ctx context.Context, session *tictactoe.Session, cell int) (entity.Outcome, error)
	ResetGame(session *tictactoe.Session)
	PreviewGame(ctx context.Context, session *tictactoe.Session, recordID string) error

	WinTally(ctx context.Context) (int, int)
	History(ctx context.Context, ownerID string) []entity.GameRecord

	// Wait - blocks until every background recording has finished.
	Wait()
}

type gameRecorder interface {
	RecordResult(ctx context.Context, board entity.Board, winner entity.Mark, ownerID string) (string, error)
	FetchWinTally(ctx context.Context) (int, int)
	FetchHistory(ctx context.Context, ownerID string) []entity.GameRecord
}

type gameMetrics interface {
	RecordMove(applied bool)
	RecordGameFinished(result string)
}

type gameUseCase struct {
	logger   *slog.Logger
	recorder gameRecorder
	metrics  gameMetrics

	pending sync.WaitGroup
}

func NewGameUseCase(logger *slog.Logger, recorder gameRecorder, metrics gameMetrics) GameUseCase {
	return &gameUseCase{
		logger:   logger.With("component", "game"),
		recorder: recorder,
		metrics:  metrics,
	}
}

func (that *gameUseCase) NewSession(ownerID string) *tictactoe.Session {
	return tictactoe.NewSession(uuid.NewString(), ownerID)
}

// MakeTurn - applies a click. Rejected clicks come back as apperror.ErrInvalidMove
// with the session untouched; a finishing move schedules the record write.
func (that *gameUseCase) MakeTurn(ctx context.Context, session *tictactoe.Session, cell int) (entity.Outcome, error) {
	outcome, err := session.Play(cell)
	if err != nil {
		that.metrics.RecordMove(false)
		return outcome, fmt.Errorf("failed to make turn: %w", err)
	}

	that.metrics.RecordMove(true)

	if record, ok := session.ClaimRecord(); ok {
		that.metrics.RecordGameFinished(resultLabel(outcome))
		that.recordInBackground(ctx, session.ID, record)
	}

	return outcome, nil
}

func (that *gameUseCase) ResetGame(session *tictactoe.Session) {
	session.Reset()
}

// PreviewGame - opens one of the owner's stored games in read-only mode.
func (that *gameUseCase) PreviewGame(ctx context.Context, session *tictactoe.Session, recordID string) error {
	if session.OwnerID == "" {
		return fmt.Errorf("%w: anonymous players have no history", apperror.ErrNotFound)
	}

	for _, record := range that.recorder.FetchHistory(ctx, session.OwnerID) {
		if record.ID == recordID {
			session.Preview(record)
			return nil
		}
	}

	return fmt.Errorf("%w: record %s", apperror.ErrNotFound, recordID)
}

func (that *gameUseCase) WinTally(ctx context.Context) (int, int) {
	return that.recorder.FetchWinTally(ctx)
}

func (that *gameUseCase) History(ctx context.Context, ownerID string) []entity.GameRecord {
	return that.recorder.FetchHistory(ctx, ownerID)
}

func (that *gameUseCase) Wait() {
	that.pending.Wait()
}

// recordInBackground - fire and forget: not canceled with the request, never retried.
func (that *gameUseCase) recordInBackground(ctx context.Context, sessionID string, record entity.GameRecord) {
	log := that.logger.With("method", "recordInBackground", "session", sessionID)

	ctx = context.WithoutCancel(ctx)

	that.pending.Add(1)
	go func() {
		defer that.pending.Done()

		// the recorder logs failures itself
		if _, err := that.recorder.RecordResult(ctx, record.Board, record.Winner, record.OwnerID); err != nil {
			log.Debug("game result was not recorded")
		}
	}()
}

func resultLabel(outcome entity.Outcome) string {
	if outcome.Status == entity.StatusDraw {
		return resultDraw
	}
	return string(outcome.Winner)
}
