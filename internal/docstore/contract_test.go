package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

// runStoreContract - behavior every backend has to share.
func runStoreContract(ctx context.Context, t *testing.T, store Store) {
	t.Helper()

	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	won := entity.GameRecord{
		Board:     entity.Board{entity.MarkX, entity.MarkX, entity.MarkX, entity.MarkO, entity.MarkO},
		Winner:    entity.MarkX,
		OwnerID:   "user-1",
		CreatedAt: createdAt,
	}
	lost := entity.GameRecord{
		Board:     entity.Board{entity.MarkX, entity.MarkX, entity.MarkEmpty, entity.MarkO, entity.MarkO, entity.MarkO, entity.MarkX},
		Winner:    entity.MarkO,
		OwnerID:   "user-2",
		CreatedAt: createdAt,
	}
	drawn := entity.GameRecord{
		Board: entity.Board{
			entity.MarkO, entity.MarkX, entity.MarkO,
			entity.MarkO, entity.MarkX, entity.MarkX,
			entity.MarkX, entity.MarkO, entity.MarkX,
		},
		OwnerID:   "user-1",
		CreatedAt: createdAt,
	}

	// Given: three stored games
	ids := make([]string, 0, 3)
	for _, record := range []entity.GameRecord{won, lost, drawn} {
		id, err := store.Insert(ctx, entity.GamesCollection, record)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		ids = append(ids, id)
	}
	assert.NotEqual(t, ids[0], ids[1])

	t.Run("Filters on winner", func(t *testing.T) {
		// When: querying games won by X
		docs, err := store.QueryWhere(ctx, entity.GamesCollection, entity.FieldWinner, entity.MarkX)

		// Then: only the first game matches and it decodes back
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, ids[0], docs[0].ID)

		var got entity.GameRecord
		require.NoError(t, json.Unmarshal(docs[0].Data, &got))
		assert.Equal(t, won.Board, got.Board)
		assert.Equal(t, won.Winner, got.Winner)
		assert.True(t, won.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Filters on owner", func(t *testing.T) {
		docs, err := store.QueryWhere(ctx, entity.GamesCollection, entity.FieldOwnerID, "user-1")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{ids[0], ids[2]}, documentIDs(docs))
	})

	t.Run("No match returns an empty result", func(t *testing.T) {
		docs, err := store.QueryWhere(ctx, entity.GamesCollection, entity.FieldOwnerID, "nobody")

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("Collections are isolated", func(t *testing.T) {
		docs, err := store.QueryWhere(ctx, "other", entity.FieldWinner, entity.MarkX)

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("Rejects records that are not objects", func(t *testing.T) {
		_, err := store.Insert(ctx, entity.GamesCollection, []int{1, 2, 3})

		require.ErrorIs(t, err, ErrNotObject)
	})
}

func documentIDs(docs []Document) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}
