package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error)
	UploadAvatar(ctx context.Context, raw []byte) (*types.User, error)
	// SetRole is admin only; admins cannot demote themselves.
	SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	avatars  AvatarService
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, avatars AvatarService) UserService {
	return &userService{log: log.With("service", "UserService"), userRepo: userRepo, avatars: avatars}
}

func (us *userService) load(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	return u, nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return us.load(ctx, userID)
}

func (us *userService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, apierr.BadRequest("invalid_request", "first_name and last_name required")
	}
	if err := us.userRepo.UpdateName(dbctx.Context{Ctx: ctx}, userID, firstName, lastName); err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	return us.load(ctx, userID)
}

func (us *userService) UploadAvatar(ctx context.Context, raw []byte) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if us.avatars == nil {
		return nil, errMediaUnavailable
	}
	if err := us.avatars.UploadAvatar(ctx, u, raw); err != nil {
		return nil, err
	}
	return u, nil
}

func (us *userService) SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if role != types.RoleAdmin && role != types.RoleCustomer {
		return nil, apierr.BadRequest("invalid_role", "role must be admin or customer")
	}
	if userID == adminID && role != types.RoleAdmin {
		return nil, apierr.Conflict("self_demotion", "admins cannot remove their own role")
	}
	if _, err := us.load(ctx, userID); err != nil {
		return nil, err
	}
	if err := us.userRepo.UpdateRole(dbctx.Context{Ctx: ctx}, userID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	us.log.Info("User role changed", "user_id", userID, "role", role, "by", adminID)
	return us.load(ctx, userID)
}
