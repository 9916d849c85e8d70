package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

type WishlistToggle struct {
	ProductID  uuid.UUID `json:"product_id"`
	Wishlisted bool      `json:"wishlisted"`
}

type WishlistService interface {
	// List returns an empty list for anonymous callers.
	List(ctx context.Context) ([]*types.WishlistItem, error)
	Add(ctx context.Context, productID uuid.UUID) error
	Remove(ctx context.Context, productID uuid.UUID) error
	Toggle(ctx context.Context, productID uuid.UUID) (*WishlistToggle, error)
	Contains(ctx context.Context, productID uuid.UUID) (bool, error)
}

type wishlistService struct {
	db           *gorm.DB
	log          *logger.Logger
	wishlistRepo repos.WishlistRepo
	productRepo  repos.ProductRepo
	emitter      *realtime.Emitter
}

func NewWishlistService(db *gorm.DB, log *logger.Logger, wishlistRepo repos.WishlistRepo, productRepo repos.ProductRepo, emitter *realtime.Emitter) WishlistService {
	return &wishlistService{
		db:           db,
		log:          log.With("service", "WishlistService"),
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		emitter:      emitter,
	}
}

func (s *wishlistService) List(ctx context.Context) ([]*types.WishlistItem, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return []*types.WishlistItem{}, nil
	}
	items, err := s.wishlistRepo.ListByUser(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	out := make([]*types.WishlistItem, 0, len(items))
	for _, it := range items {
		// Soft-deleted products are not preloaded.
		if it.Product != nil {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *wishlistService) checkProduct(dbc dbctx.Context, productID uuid.UUID) error {
	p, err := s.productRepo.GetByID(dbc, productID, false)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return apierr.NotFound("product")
	}
	return nil
}

func (s *wishlistService) Add(ctx context.Context, productID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.checkProduct(dbc, productID); err != nil {
		return err
	}
	created, err := s.wishlistRepo.Add(dbc, userID, productID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	if created {
		s.emitter.ToUser(ctx, userID, realtime.SSEEventWishlistUpdated, WishlistToggle{ProductID: productID, Wishlisted: true})
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, productID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	removed, err := s.wishlistRepo.Remove(dbctx.Context{Ctx: ctx}, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if removed {
		s.emitter.ToUser(ctx, userID, realtime.SSEEventWishlistUpdated, WishlistToggle{ProductID: productID})
	}
	return nil
}

func (s *wishlistService) Toggle(ctx context.Context, productID uuid.UUID) (*WishlistToggle, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	out := &WishlistToggle{ProductID: productID}
	err = inTx(s.db, dbctx.Context{Ctx: ctx}, func(dbc dbctx.Context) error {
		exists, err := s.wishlistRepo.Exists(dbc, userID, productID)
		if err != nil {
			return fmt.Errorf("check wishlist: %w", err)
		}
		if exists {
			_, err := s.wishlistRepo.Remove(dbc, userID, productID)
			return err
		}
		if err := s.checkProduct(dbc, productID); err != nil {
			return err
		}
		if _, err := s.wishlistRepo.Add(dbc, userID, productID); err != nil {
			return fmt.Errorf("add to wishlist: %w", err)
		}
		out.Wishlisted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitter.ToUser(ctx, userID, realtime.SSEEventWishlistUpdated, out)
	return out, nil
}

// Contains is false for anonymous callers.
func (s *wishlistService) Contains(ctx context.Context, productID uuid.UUID) (bool, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return false, nil
	}
	ok, err := s.wishlistRepo.Exists(dbctx.Context{Ctx: ctx}, rd.UserID, productID)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return ok, nil
}
