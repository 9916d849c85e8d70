package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

const (
	maxReviewTitle = 120
	maxReviewBody  = 4000
)

type ReviewInput struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type ReviewPatch struct {
	Rating *int    `json:"rating"`
	Title  *string `json:"title"`
	Body   *string `json:"body"`
}

type ReviewPage struct {
	Items   []*types.Review     `json:"items"`
	Summary types.ReviewSummary `json:"summary"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
}

type ReviewService interface {
	ListByProduct(ctx context.Context, productID uuid.UUID, page Page) (*ReviewPage, error)
	Create(ctx context.Context, productID uuid.UUID, in ReviewInput) (*types.Review, error)
	Update(ctx context.Context, reviewID uuid.UUID, in ReviewPatch) (*types.Review, error)
	// Delete removes the caller's own review; admins may remove any review.
	Delete(ctx context.Context, reviewID uuid.UUID) error
}

type reviewService struct {
	db          *gorm.DB
	log         *logger.Logger
	reviewRepo  repos.ReviewRepo
	productRepo repos.ProductRepo
	orderRepo   repos.OrderRepo
	userRepo    repos.UserRepo
	cache       cache.Cache
}

// NewReviewService takes the catalog cache so rating changes drop stale
// product cards. c may be nil.
func NewReviewService(
	db *gorm.DB,
	log *logger.Logger,
	reviewRepo repos.ReviewRepo,
	productRepo repos.ProductRepo,
	orderRepo repos.OrderRepo,
	userRepo repos.UserRepo,
	c cache.Cache,
) ReviewService {
	return &reviewService{
		db:          db,
		log:         log.With("service", "ReviewService"),
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		cache:       c,
	}
}

func validRating(r int) error {
	if r < types.MinRating || r > types.MaxRating {
		return apierr.BadRequest("invalid_rating", fmt.Sprintf("rating must be between %d and %d", types.MinRating, types.MaxRating))
	}
	return nil
}

func reviewText(title, body string) (string, string, error) {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if utf8.RuneCountInString(title) > maxReviewTitle {
		return "", "", apierr.BadRequest("invalid_request", "title too long")
	}
	if utf8.RuneCountInString(body) > maxReviewBody {
		return "", "", apierr.BadRequest("invalid_request", "body too long")
	}
	return title, body, nil
}

// authorName renders "First L." so reviews never expose a full name or email.
func authorName(u *types.User) string {
	if u == nil {
		return "Customer"
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	if first == "" {
		return "Customer"
	}
	if r, _ := utf8.DecodeRuneInString(last); last != "" {
		return first + " " + strings.ToUpper(string(r)) + "."
	}
	return first
}

func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page Page) (*ReviewPage, error) {
	page = page.normalize()
	dbc := dbctx.Context{Ctx: ctx}
	items, err := s.reviewRepo.ListByProduct(dbc, productID, page.Limit, page.offset())
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	sum, err := s.reviewRepo.Summary(dbc, productID)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	sum.ProductID = productID
	return &ReviewPage{Items: items, Summary: sum, Page: page.Page, Limit: page.Limit}, nil
}

func (s *reviewService) Create(ctx context.Context, productID uuid.UUID, in ReviewInput) (*types.Review, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validRating(in.Rating); err != nil {
		return nil, err
	}
	title, body, err := reviewText(in.Title, in.Body)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.GetByID(dbc, productID, false)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, apierr.NotFound("product")
	}
	existing, err := s.reviewRepo.GetByUserProduct(dbc, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	if existing != nil {
		return nil, apierr.Conflict("already_reviewed", "you have already reviewed this product")
	}
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	verified, err := s.orderRepo.HasPurchased(dbc, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	rv := &types.Review{
		ProductID:        productID,
		UserID:           userID,
		AuthorName:       authorName(u),
		Rating:           in.Rating,
		Title:            title,
		Body:             body,
		VerifiedPurchase: verified,
	}
	if err := s.reviewRepo.Create(dbc, rv); err != nil {
		// The unique index catches a concurrent second review.
		if isDuplicate(err) {
			return nil, apierr.Conflict("already_reviewed", "you have already reviewed this product")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.dropCatalog(ctx)
	return rv, nil
}

func (s *reviewService) Update(ctx context.Context, reviewID uuid.UUID, in ReviewPatch) (*types.Review, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rv, err := s.reviewRepo.GetByID(dbc, reviewID)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	if rv == nil || rv.UserID != userID {
		return nil, apierr.NotFound("review")
	}
	updates := map[string]interface{}{}
	if in.Rating != nil {
		if err := validRating(*in.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *in.Rating
	}
	title, body := rv.Title, rv.Body
	if in.Title != nil {
		title = *in.Title
	}
	if in.Body != nil {
		body = *in.Body
	}
	if title, body, err = reviewText(title, body); err != nil {
		return nil, err
	}
	if in.Title != nil {
		updates["title"] = title
	}
	if in.Body != nil {
		updates["body"] = body
	}
	if err := s.reviewRepo.Update(dbc, reviewID, updates); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if _, ok := updates["rating"]; ok {
		s.dropCatalog(ctx)
	}
	return s.reviewRepo.GetByID(dbc, reviewID)
}

func (s *reviewService) Delete(ctx context.Context, reviewID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rv, err := s.reviewRepo.GetByID(dbc, reviewID)
	if err != nil {
		return fmt.Errorf("load review: %w", err)
	}
	if rv == nil {
		return apierr.NotFound("review")
	}
	if rv.UserID != userID {
		if rd := ctxutil.GetRequestData(ctx); rd.Role != types.RoleAdmin {
			return apierr.NotFound("review")
		}
	}
	if _, err := s.reviewRepo.Delete(dbc, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if rv.UserID != userID {
		s.log.Info("Review removed by admin", "review_id", reviewID, "product_id", rv.ProductID, "by", userID)
	}
	s.dropCatalog(ctx)
	return nil
}

func (s *reviewService) dropCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
		s.log.Warn("Catalog cache invalidation failed", "error", err)
	}
}
