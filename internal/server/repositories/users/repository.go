package users

import (
	"context"

	"github.com/dmitrijs2005/financa/internal/server/models"
)

// Repository persists user records. Lookups of absent rows return
// common.ErrorNotFound; a duplicate email returns common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}
