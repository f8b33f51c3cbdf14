package recorder

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/docstore"
)

type mockDocStore struct {
	mock.Mock
}

func (m *mockDocStore) Insert(ctx context.Context, collection string, record any) (string, error) {
	args := m.Called(ctx, collection, record)
	return args.String(0), args.Error(1)
}

func (m *mockDocStore) QueryWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	args := m.Called(ctx, collection, field, value)
	docs, _ := args.Get(0).([]docstore.Document)
	return docs, args.Error(1)
}
