package rest

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

const authURL = "https://accounts.test/auth"

type fakeIdentity struct {
	user *entity.User
	err  error
}

func (that *fakeIdentity) AuthCodeURL(state string) string {
	return authURL + "?state=" + url.QueryEscape(state)
}

func (that *fakeIdentity) SignIn(_ context.Context, code string) (*entity.User, error) {
	if code == "" {
		return nil, apperror.ErrAuthCancelled
	}
	return that.user, that.err
}

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	args := m.Called(ctx, user)
	stored, _ := args.Get(0).(*entity.User)
	return stored, args.Error(1)
}

type mockGameReader struct {
	mock.Mock
}

func (m *mockGameReader) WinTally(ctx context.Context) (int, int) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1)
}

func (m *mockGameReader) History(ctx context.Context, ownerID string) []entity.GameRecord {
	args := m.Called(ctx, ownerID)
	records, _ := args.Get(0).([]entity.GameRecord)
	return records
}
