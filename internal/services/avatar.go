package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

const avatarPx = 512

type AvatarService interface {
	CreateInitialsAvatar(ctx context.Context, user *types.User) error
	UploadAvatar(ctx context.Context, user *types.User, raw []byte) error
}

type avatarService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	bucket   gcp.MediaBucket
	renderer *TileRenderer
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, bucket gcp.MediaBucket, renderer *TileRenderer) AvatarService {
	return &avatarService{
		log:      log.With("service", "AvatarService"),
		userRepo: userRepo,
		bucket:   bucket,
		renderer: renderer,
	}
}

func (as *avatarService) CreateInitialsAvatar(ctx context.Context, user *types.User) error {
	if as.bucket == nil || as.renderer == nil {
		return nil
	}
	label := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if label == "" {
		label = user.Email
	}
	data, err := as.renderer.Render(label, avatarPx, true)
	if err != nil {
		return err
	}
	return as.replace(ctx, user, data, "image/png", "png")
}

func (as *avatarService) UploadAvatar(ctx context.Context, user *types.User, raw []byte) error {
	if as.bucket == nil {
		return errMediaUnavailable
	}
	img, err := ProcessImage(raw, avatarPx)
	if err != nil {
		return err
	}
	return as.replace(ctx, user, img.Data, img.ContentType, img.Ext)
}

func (as *avatarService) replace(ctx context.Context, user *types.User, data []byte, contentType, ext string) error {
	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	newKey := fmt.Sprintf("avatars/%s/%d.%s", user.ID, time.Now().UnixNano(), ext)
	if err := as.bucket.Upload(ctx, newKey, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	url := as.bucket.PublicURL(newKey)
	if err := as.userRepo.UpdateAvatar(dbctx.Context{Ctx: ctx}, user.ID, newKey, url); err != nil {
		return fmt.Errorf("save avatar: %w", err)
	}
	user.AvatarBucketKey = newKey
	user.AvatarURL = url

	if oldKey != "" && oldKey != newKey {
		if err := as.bucket.Delete(ctx, oldKey); err != nil {
			as.log.Warn("Failed to delete old avatar (ignored)", "key", oldKey, "error", err)
		}
	}
	return nil
}
