package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
)

type UserUseCase interface {
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, id string) (*entity.User, error)
}

type userUseCase struct {
	repo userRepo
}

func NewUserUseCase(repo userRepo) UserUseCase {
	return &userUseCase{
		repo: repo,
	}
}

// Update - stores a freshly signed-in user, refreshing the profile of a known one.
func (that *userUseCase) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	if err := that.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user into storage: %w", err)
	}

	stored, err := that.repo.Find(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user into storage: %w", err)
	}

	return stored, nil
}
