package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

const heroCacheKey = catalogCachePrefix + "hero"

type HeroSlideInput struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
	CTAText  string `json:"cta_text"`
	IsActive *bool  `json:"is_active"`
}

type HeroSlidePatch struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	ImageURL *string `json:"image_url"`
	LinkURL  *string `json:"link_url"`
	CTAText  *string `json:"cta_text"`
	IsActive *bool   `json:"is_active"`
}

type ContentService interface {
	// HeroSlides lists active slides in display order.
	HeroSlides(ctx context.Context) ([]*types.HeroSlide, error)

	AdminHeroSlides(ctx context.Context) ([]*types.HeroSlide, error)
	CreateHeroSlide(ctx context.Context, in HeroSlideInput) (*types.HeroSlide, error)
	UpdateHeroSlide(ctx context.Context, id uuid.UUID, in HeroSlidePatch) (*types.HeroSlide, error)
	DeleteHeroSlide(ctx context.Context, id uuid.UUID) error
	// ReorderHeroSlides sets sort order from the position of each id; every
	// slide must be listed exactly once.
	ReorderHeroSlides(ctx context.Context, ids []uuid.UUID) ([]*types.HeroSlide, error)
}

type contentService struct {
	db      *gorm.DB
	log     *logger.Logger
	slides  repos.HeroSlideRepo
	media   MediaService
	cache   cache.Cache
	emitter *realtime.Emitter
}

func NewContentService(db *gorm.DB, log *logger.Logger, slides repos.HeroSlideRepo, media MediaService, c cache.Cache, emitter *realtime.Emitter) ContentService {
	return &contentService{
		db:      db,
		log:     log.With("service", "ContentService"),
		slides:  slides,
		media:   media,
		cache:   c,
		emitter: emitter,
	}
}

// validLink accepts absolute http(s) urls and site-relative paths.
func validLink(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *contentService) HeroSlides(ctx context.Context) ([]*types.HeroSlide, error) {
	if s.cache != nil {
		if v, ok, err := cache.GetJSON[[]*types.HeroSlide](ctx, s.cache, heroCacheKey); err == nil && ok {
			return v, nil
		}
	}
	out, err := s.slides.List(dbctx.Context{Ctx: ctx}, true)
	if err != nil {
		return nil, fmt.Errorf("list hero slides: %w", err)
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, heroCacheKey, out, 10*time.Minute); err != nil {
			s.log.Warn("Hero cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *contentService) AdminHeroSlides(ctx context.Context) ([]*types.HeroSlide, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out, err := s.slides.List(dbctx.Context{Ctx: ctx}, false)
	if err != nil {
		return nil, fmt.Errorf("list hero slides: %w", err)
	}
	return out, nil
}

func (s *contentService) changed(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, heroCacheKey); err != nil {
			s.log.Warn("Hero cache invalidation failed", "error", err)
		}
	}
	s.emitter.Catalog(ctx, map[string]any{"kind": "hero_slide", "id": id})
}

func (s *contentService) CreateHeroSlide(ctx context.Context, in HeroSlideInput) (*types.HeroSlide, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.LinkURL = strings.TrimSpace(in.LinkURL)
	if in.Title == "" {
		return nil, apierr.BadRequest("invalid_request", "title required")
	}
	if !validLink(in.LinkURL) {
		return nil, apierr.BadRequest("invalid_request", "link_url must be an http(s) url or a site path")
	}
	slide := &types.HeroSlide{
		Title:    in.Title,
		Subtitle: strings.TrimSpace(in.Subtitle),
		ImageURL: strings.TrimSpace(in.ImageURL),
		LinkURL:  in.LinkURL,
		CTAText:  strings.TrimSpace(in.CTAText),
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if slide.ImageURL == "" && s.media != nil && s.media.Enabled() {
		if obj, err := s.media.Placeholder(ctx, "hero", slide.Title); err != nil {
			s.log.Warn("Hero placeholder failed", "error", err)
		} else {
			slide.ImageURL = obj.URL
		}
	}
	err := inTx(s.db, dbctx.Context{Ctx: ctx}, func(dbc dbctx.Context) error {
		top, err := s.slides.MaxSortOrder(dbc)
		if err != nil {
			return fmt.Errorf("hero sort order: %w", err)
		}
		slide.SortOrder = top + 1
		return s.slides.Create(dbc, slide)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, slide.ID)
	return slide, nil
}

func (s *contentService) UpdateHeroSlide(ctx context.Context, id uuid.UUID, in HeroSlidePatch) (*types.HeroSlide, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	cur, err := s.slides.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load hero slide: %w", err)
	}
	if cur == nil {
		return nil, apierr.NotFound("hero slide")
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apierr.BadRequest("invalid_request", "title required")
		}
		updates["title"] = t
	}
	if in.Subtitle != nil {
		updates["subtitle"] = strings.TrimSpace(*in.Subtitle)
	}
	if in.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.LinkURL != nil {
		l := strings.TrimSpace(*in.LinkURL)
		if !validLink(l) {
			return nil, apierr.BadRequest("invalid_request", "link_url must be an http(s) url or a site path")
		}
		updates["link_url"] = l
	}
	if in.CTAText != nil {
		updates["cta_text"] = strings.TrimSpace(*in.CTAText)
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := s.slides.Update(dbc, id, updates); err != nil {
		return nil, fmt.Errorf("update hero slide: %w", err)
	}
	s.changed(ctx, id)
	return s.slides.GetByID(dbc, id)
}

func (s *contentService) DeleteHeroSlide(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.slides.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete hero slide: %w", err)
	}
	if !ok {
		return apierr.NotFound("hero slide")
	}
	s.changed(ctx, id)
	return nil
}

func (s *contentService) ReorderHeroSlides(ctx context.Context, ids []uuid.UUID) ([]*types.HeroSlide, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out []*types.HeroSlide
	err := inTx(s.db, dbctx.Context{Ctx: ctx}, func(dbc dbctx.Context) error {
		all, err := s.slides.List(dbc, false)
		if err != nil {
			return fmt.Errorf("list hero slides: %w", err)
		}
		known := make(map[uuid.UUID]bool, len(all))
		for _, sl := range all {
			known[sl.ID] = true
		}
		if len(ids) != len(all) {
			return apierr.BadRequest("invalid_request", "reorder must list every slide exactly once")
		}
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if !known[id] || seen[id] {
				return apierr.BadRequest("invalid_request", "reorder must list every slide exactly once")
			}
			seen[id] = true
		}
		if err := s.slides.Reorder(dbc, ids); err != nil {
			return fmt.Errorf("reorder hero slides: %w", err)
		}
		out, err = s.slides.List(dbc, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, uuid.Nil)
	return out, nil
}
