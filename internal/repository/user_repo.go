package repository

import (
	"Courier/internal/model"
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

//go:generate go run go.uber.org/mock/mockgen -source=user_repo.go -destination=../mocks/mock_user_repo.go -package=mocks

type UserRepo interface {
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

func (s *UserRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).
		Where("is_delete = ?", false).
		First(user, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(result.Error, "get user")
	}

	return user, nil
}
