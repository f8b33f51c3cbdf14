package recorder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/docstore"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/metrics"
)

var errStoreDown = errors.New("store is down")

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRecorder(store docStore) *GameRecorder {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	rec := New(logger, store, metrics.Nop{}, time.Second)
	rec.now = func() time.Time { return fixedNow }

	return rec
}

var wonBoard = entity.Board{
	entity.MarkX, entity.MarkO, entity.MarkEmpty,
	entity.MarkO, entity.MarkX, entity.MarkEmpty,
	entity.MarkEmpty, entity.MarkEmpty, entity.MarkX,
}

func TestGameRecorder_RecordResult(t *testing.T) {
	ctx := context.Background()

	t.Run("Inserts one record per call", func(t *testing.T) {
		// Given: a store that accepts inserts
		store := &mockDocStore{}
		store.On("Insert", mock.Anything, entity.GamesCollection, entity.GameRecord{
			Board:     wonBoard,
			Winner:    entity.MarkX,
			OwnerID:   "user-1",
			CreatedAt: fixedNow,
		}).Return("rec-1", nil)

		rec := newTestRecorder(store)

		// When: recording the same finished board twice
		first, err := rec.RecordResult(ctx, wonBoard, entity.MarkX, "user-1")
		require.NoError(t, err)
		_, err = rec.RecordResult(ctx, wonBoard, entity.MarkX, "user-1")
		require.NoError(t, err)

		// Then: the recorder does not deduplicate, each call is one insert
		assert.Equal(t, "rec-1", first)
		store.AssertNumberOfCalls(t, "Insert", 2)
	})

	t.Run("Storage failure is reported, not raised", func(t *testing.T) {
		// Given: a store that is down
		store := &mockDocStore{}
		store.On("Insert", mock.Anything, entity.GamesCollection, mock.Anything).Return("", errStoreDown).Once()

		rec := newTestRecorder(store)

		// When: recording a game
		id, err := rec.RecordResult(ctx, wonBoard, entity.MarkX, "")

		// Then: the error is classified as storage unavailability
		require.ErrorIs(t, err, apperror.ErrStorageUnavailable)
		require.ErrorIs(t, err, errStoreDown)
		assert.Empty(t, id)
		store.AssertExpectations(t)
	})

	t.Run("Write is bounded by the timeout", func(t *testing.T) {
		store := &mockDocStore{}
		store.On("Insert", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), entity.GamesCollection, mock.Anything).Return("rec-1", nil).Once()

		_, err := newTestRecorder(store).RecordResult(ctx, wonBoard, entity.MarkX, "")

		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestGameRecorder_FetchWinTally(t *testing.T) {
	ctx := context.Background()

	t.Run("Counts wins per mark", func(t *testing.T) {
		// Given: two X wins and one O win
		store := &mockDocStore{}
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldWinner, entity.MarkX).
			Return([]docstore.Document{{ID: "1"}, {ID: "2"}}, nil).Once()
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldWinner, entity.MarkO).
			Return([]docstore.Document{{ID: "3"}}, nil).Once()

		// When: fetching the tally
		xWins, oWins := newTestRecorder(store).FetchWinTally(ctx)

		// Then: both counts are returned
		assert.Equal(t, 2, xWins)
		assert.Equal(t, 1, oWins)
		store.AssertExpectations(t)
	})

	t.Run("Failing storage yields zero counts", func(t *testing.T) {
		// Given: one of the two reads fails
		store := &mockDocStore{}
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldWinner, entity.MarkX).
			Return([]docstore.Document{{ID: "1"}}, nil).Maybe()
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldWinner, entity.MarkO).
			Return(nil, errStoreDown).Once()

		// When: fetching the tally
		xWins, oWins := newTestRecorder(store).FetchWinTally(ctx)

		// Then: the fail-soft default is returned
		assert.Equal(t, 0, xWins)
		assert.Equal(t, 0, oWins)
	})
}

func TestGameRecorder_FetchHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the owner's records with their IDs", func(t *testing.T) {
		// Given: two stored games of one owner
		store := &mockDocStore{}
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldOwnerID, "user-1").
			Return([]docstore.Document{
				{ID: "a", Data: []byte(`{"squares":["X","O",null,"O","X",null,null,null,"X"],"winner":"X","owner_id":"user-1","created_at":"2024-05-01T12:00:00Z"}`)},
				{ID: "b", Data: []byte(`{"squares":["O","X","O","O","X","X","X","O","X"],"owner_id":"user-1","created_at":"2024-05-02T12:00:00Z"}`)},
			}, nil).Once()

		// When: fetching the history
		records := newTestRecorder(store).FetchHistory(ctx, "user-1")

		// Then: both are decoded
		require.Len(t, records, 2)
		assert.Equal(t, "a", records[0].ID)
		assert.Equal(t, wonBoard, records[0].Board)
		assert.Equal(t, entity.MarkX, records[0].Winner)
		assert.Equal(t, "b", records[1].ID)
		assert.True(t, records[1].IsDraw())
	})

	t.Run("Malformed documents are skipped", func(t *testing.T) {
		store := &mockDocStore{}
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldOwnerID, "user-1").
			Return([]docstore.Document{
				{ID: "bad", Data: []byte(`{"squares":["X"]}`)},
			}, nil).Once()

		records := newTestRecorder(store).FetchHistory(ctx, "user-1")

		assert.Empty(t, records)
	})

	t.Run("Failing storage yields an empty history", func(t *testing.T) {
		// Given: a store that is down
		store := &mockDocStore{}
		store.On("QueryWhere", mock.Anything, entity.GamesCollection, entity.FieldOwnerID, "user-1").
			Return(nil, errStoreDown).Once()

		// When: fetching the history
		records := newTestRecorder(store).FetchHistory(ctx, "user-1")

		// Then: an empty, non-nil slice is returned
		require.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Anonymous players have no history", func(t *testing.T) {
		store := &mockDocStore{}

		records := newTestRecorder(store).FetchHistory(ctx, "")

		assert.Empty(t, records)
		store.AssertNotCalled(t, "QueryWhere", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGameRecorder_WithMemoryStore(t *testing.T) {
	ctx := context.Background()
	rec := newTestRecorder(docstore.NewMemory())

	// Given: an X win, an O win and a draw
	_, err := rec.RecordResult(ctx, wonBoard, entity.MarkX, "user-1")
	require.NoError(t, err)
	_, err = rec.RecordResult(ctx, entity.Board{entity.MarkO, entity.MarkO, entity.MarkO}, entity.MarkO, "user-2")
	require.NoError(t, err)
	_, err = rec.RecordResult(ctx, entity.Board{}, entity.MarkEmpty, "user-1")
	require.NoError(t, err)

	// Then: the tally and history reflect them
	xWins, oWins := rec.FetchWinTally(ctx)
	assert.Equal(t, 1, xWins)
	assert.Equal(t, 1, oWins)

	history := rec.FetchHistory(ctx, "user-1")
	require.Len(t, history, 2)
	for _, record := range history {
		assert.Equal(t, "user-1", record.OwnerID)
		assert.True(t, fixedNow.Equal(record.CreatedAt))
	}
}
