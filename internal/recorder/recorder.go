package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/docstore"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/metrics"
)

type docStore interface {
	Insert(ctx context.Context, collection string, record any) (string, error)
	QueryWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error)
}

type metricsSink interface {
	RecordSaved(duration time.Duration)
	RecordSaveFailure(duration time.Duration)
	RecordReadFallback(read string)
}

// GameRecorder - writes finished games and reads them back. Storage failures never
// reach the caller as anything worse than a logged error or a default value.
type GameRecorder struct {
	logger  *slog.Logger
	store   docStore
	metrics metricsSink
	timeout time.Duration
	now     func() time.Time
}

// New - timeout bounds every storage call, zero leaves it to the store client.
func New(logger *slog.Logger, store docStore, metrics metricsSink, timeout time.Duration) *GameRecorder {
	return &GameRecorder{
		logger:  logger.With("component", "recorder"),
		store:   store,
		metrics: metrics,
		timeout: timeout,
		now:     time.Now,
	}
}

// RecordResult - inserts one record per call. Deduplication is the caller's job.
func (that *GameRecorder) RecordResult(ctx context.Context, board entity.Board, winner entity.Mark, ownerID string) (string, error) {
	log := that.logger.With("method", "RecordResult")

	record := entity.GameRecord{
		Board:     board,
		Winner:    winner,
		OwnerID:   ownerID,
		CreatedAt: that.now().UTC(),
	}

	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	started := time.Now()

	id, err := that.store.Insert(ctx, entity.GamesCollection, record)
	if err != nil {
		that.metrics.RecordSaveFailure(time.Since(started))
		log.Error("failed to record game", "winner", winner, "owner", ownerID, "error", err)

		return "", fmt.Errorf("%w: %w", apperror.ErrStorageUnavailable, err)
	}

	that.metrics.RecordSaved(time.Since(started))
	log.Info("game recorded", "id", id, "winner", winner)

	return id, nil
}

// FetchWinTally - counts games won by X and by O. Any failure yields (0, 0).
func (that *GameRecorder) FetchWinTally(ctx context.Context) (int, int) {
	log := that.logger.With("method", "FetchWinTally")

	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var xWins, oWins int

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		docs, err := that.store.QueryWhere(groupCtx, entity.GamesCollection, entity.FieldWinner, entity.MarkX)
		if err != nil {
			return fmt.Errorf("failed to count X wins: %w", err)
		}
		xWins = len(docs)
		return nil
	})
	group.Go(func() error {
		docs, err := that.store.QueryWhere(groupCtx, entity.GamesCollection, entity.FieldWinner, entity.MarkO)
		if err != nil {
			return fmt.Errorf("failed to count O wins: %w", err)
		}
		oWins = len(docs)
		return nil
	})

	if err := group.Wait(); err != nil {
		that.metrics.RecordReadFallback(metrics.ReadTally)
		log.Error("failed to fetch win tally", "error", err)

		return 0, 0
	}

	return xWins, oWins
}

// FetchHistory - the owner's games in no particular order. Any failure yields an empty slice.
func (that *GameRecorder) FetchHistory(ctx context.Context, ownerID string) []entity.GameRecord {
	log := that.logger.With("method", "FetchHistory")

	if ownerID == "" {
		return []entity.GameRecord{}
	}

	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	docs, err := that.store.QueryWhere(ctx, entity.GamesCollection, entity.FieldOwnerID, ownerID)
	if err != nil {
		that.metrics.RecordReadFallback(metrics.ReadHistory)
		log.Error("failed to fetch history", "owner", ownerID, "error", err)

		return []entity.GameRecord{}
	}

	records := make([]entity.GameRecord, 0, len(docs))
	for _, doc := range docs {
		var record entity.GameRecord
		if err = json.Unmarshal(doc.Data, &record); err != nil {
			log.Warn("skipping malformed game record", "id", doc.ID, "error", err)
			continue
		}

		record.ID = doc.ID
		records = append(records, record)
	}

	return records
}

func (that *GameRecorder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if that.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, that.timeout)
}
