// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	// Register creates the account if the email is new, otherwise returns
	// the existing one.
	Register(ctx context.Context, email, displayName string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
}

func NewUserUseCase(users repository.UserRepository) *userUC {
	return &userUC{users: users}
}

func (uc *userUC) Register(ctx context.Context, email, displayName string) (*model.User, error) {
	if existing, err := uc.users.FindByEmail(ctx, repository.NoTX, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user, err := model.NewUser(uuid.NewString(), email, displayName)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *userUC) FindByID(ctx context.Context, id string) (*model.User, error) {
	return uc.users.FindByID(ctx, repository.NoTX, id)
}

func (uc *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return uc.users.List(ctx, repository.NoTX, offset, limit)
}

func (uc *userUC) Count(ctx context.Context) (int, error) {
	return uc.users.Count(ctx, repository.NoTX)
}
