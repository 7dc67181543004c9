package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/cache"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

// userClient is the part of the Casdoor SDK client used here
type userClient interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userClient
	cache  *cache.CacheHelper
}

func NewUserCasdoor(cfg config.CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return newUserCasdoor(client, redisClient)
}

func newUserCasdoor(client userClient, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheManager(redisClient).User,
	}
}

// GetByID resolves a user by Casdoor id, cached for UserCacheConfig.TTL
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, repositories.ErrNotFound
	}

	var user models.User
	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, repositories.ErrNotFound
		}
		return convertCasdoorUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}

func convertCasdoorUser(casdoorUser *casdoorsdk.User) *models.User {
	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	var avatar *string
	if casdoorUser.Avatar != "" {
		a := casdoorUser.Avatar
		avatar = &a
	}

	return &models.User{
		ID:          casdoorUser.Id,
		DisplayName: casdoorUser.DisplayName,
		Email:       casdoorUser.Email,
		Role:        RoleFromCasdoor(casdoorUser),
		AvatarURL:   avatar,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// RoleFromCasdoor maps Casdoor roles onto member/admin; admin wins over everything else
func RoleFromCasdoor(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	names := make([]string, 0, len(casdoorUser.Roles))
	for _, r := range casdoorUser.Roles {
		if r != nil {
			names = append(names, strings.ToLower(r.Name))
		}
	}

	if slices.ContainsFunc(names, isAdminRoleName) {
		return models.RoleAdmin
	}
	return models.RoleMember
}

func isAdminRoleName(name string) bool {
	switch name {
	case "admin", "administrator", "challenge_admin":
		return true
	}
	return false
}
