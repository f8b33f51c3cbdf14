package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordResult(ctx context.Context, board entity.Board, winner entity.Mark, ownerID string) (string, error) {
	args := m.Called(ctx, board, winner, ownerID)
	return args.String(0), args.Error(1)
}

func (m *mockRecorder) FetchWinTally(ctx context.Context) (int, int) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1)
}

func (m *mockRecorder) FetchHistory(ctx context.Context, ownerID string) []entity.GameRecord {
	args := m.Called(ctx, ownerID)
	records, _ := args.Get(0).([]entity.GameRecord)
	return records
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordMove(applied bool) {
	m.Called(applied)
}

func (m *mockMetrics) RecordGameFinished(result string) {
	m.Called(result)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Save(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Find(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}
