package repositories

import (
	"context"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
)

// UserRepository resolves users for authentication; the service is not the owner of user data
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
