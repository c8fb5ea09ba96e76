package users

import (
	"context"

	"github.com/avolkovs/imgboard/internal/server/models"
)

// Repository is the persistence contract for user records.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
