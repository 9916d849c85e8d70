package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

const catalogCachePrefix = "catalog:"

type ProductQuery struct {
	CategorySlug  string `form:"category" json:"category,omitempty"`
	Search        string `form:"q" json:"q,omitempty"`
	MinPriceCents *int64 `form:"min_price" json:"min_price,omitempty"`
	MaxPriceCents *int64 `form:"max_price" json:"max_price,omitempty"`
	Featured      bool   `form:"featured" json:"featured,omitempty"`
	InStock       bool   `form:"in_stock" json:"in_stock,omitempty"`
	Sort          string `form:"sort" json:"sort,omitempty"`
	Page          int    `form:"page" json:"page,omitempty"`
	Limit         int    `form:"limit" json:"limit,omitempty"`
}

func (q ProductQuery) cacheKey() string {
	fmtPtr := func(p *int64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("%sproducts:%s|%s|%s|%s|%t|%t|%s|%d|%d",
		catalogCachePrefix, q.CategorySlug, strings.ToLower(strings.TrimSpace(q.Search)),
		fmtPtr(q.MinPriceCents), fmtPtr(q.MaxPriceCents), q.Featured, q.InStock, q.Sort, q.Page, q.Limit)
}

type ProductCard struct {
	*types.Product
	Rating types.ReviewSummary `json:"rating"`
}

type ProductPage struct {
	Items []*ProductCard `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]*types.Category, error)
	ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, slugOrID string) (*ProductCard, error)
}

type catalogService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	productRepo  repos.ProductRepo
	variantRepo  repos.VariantRepo
	reviewRepo   repos.ReviewRepo
	media        MediaService
	cache        cache.Cache
	cacheTTL     time.Duration
	emitter      *realtime.Emitter
	metrics      *observability.Metrics
}

// CatalogDeps groups the collaborators of the catalog services. Cache,
// Media, Emitter and Metrics are optional.
type CatalogDeps struct {
	CategoryRepo repos.CategoryRepo
	ProductRepo  repos.ProductRepo
	VariantRepo  repos.VariantRepo
	ReviewRepo   repos.ReviewRepo
	Media        MediaService
	Cache        cache.Cache
	CacheTTL     time.Duration
	Emitter      *realtime.Emitter
	Metrics      *observability.Metrics
}

func newCatalogService(db *gorm.DB, log *logger.Logger, deps CatalogDeps) *catalogService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &catalogService{
		db:           db,
		log:          log.With("service", "CatalogService"),
		categoryRepo: deps.CategoryRepo,
		productRepo:  deps.ProductRepo,
		variantRepo:  deps.VariantRepo,
		reviewRepo:   deps.ReviewRepo,
		media:        deps.Media,
		cache:        deps.Cache,
		cacheTTL:     ttl,
		emitter:      deps.Emitter,
		metrics:      deps.Metrics,
	}
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, deps CatalogDeps) CatalogService {
	return newCatalogService(db, log, deps)
}

// cached serves key from the cache when present, otherwise loads and stores
// it. Cache errors degrade to a direct load.
func cached[T any](ctx context.Context, cs *catalogService, key string, load func() (T, error)) (T, error) {
	if cs.cache != nil {
		v, ok, err := cache.GetJSON[T](ctx, cs.cache, key)
		if err != nil {
			cs.log.Warn("Catalog cache read failed", "key", key, "error", err)
		}
		cs.metrics.IncCacheLookup(ok)
		if ok {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if cs.cache != nil {
		if err := cache.SetJSON(ctx, cs.cache, key, v, cs.cacheTTL); err != nil {
			cs.log.Warn("Catalog cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (cs *catalogService) invalidate(ctx context.Context, kind string, id uuid.UUID) {
	if cs.cache != nil {
		if err := cs.cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
			cs.log.Warn("Catalog cache invalidation failed", "error", err)
		}
	}
	cs.emitter.Catalog(ctx, map[string]any{"kind": kind, "id": id})
}

func (cs *catalogService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	return cached(ctx, cs, catalogCachePrefix+"categories", func() ([]*types.Category, error) {
		return cs.categoryRepo.List(dbctx.Context{Ctx: ctx}, true)
	})
}

func (cs *catalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := Page{Page: q.Page, Limit: q.Limit}.normalize()
	q.Page, q.Limit = page.Page, page.Limit
	switch q.Sort {
	case repos.SortNewest, repos.SortPriceAsc, repos.SortPriceDesc, repos.SortName:
	case "":
		q.Sort = repos.SortNewest
	default:
		return nil, apierr.BadRequest("invalid_sort", "sort must be newest, price_asc, price_desc or name")
	}
	if q.MinPriceCents != nil && q.MaxPriceCents != nil && *q.MinPriceCents > *q.MaxPriceCents {
		return nil, apierr.BadRequest("invalid_price_range", "min_price exceeds max_price")
	}
	return cached(ctx, cs, q.cacheKey(), func() (*ProductPage, error) {
		return cs.listProducts(dbctx.Context{Ctx: ctx}, q, page, false)
	})
}

func (cs *catalogService) listProducts(dbc dbctx.Context, q ProductQuery, page Page, includeHidden bool) (*ProductPage, error) {
	f := repos.ProductFilter{
		Search:        q.Search,
		MinPriceCents: q.MinPriceCents,
		MaxPriceCents: q.MaxPriceCents,
		FeaturedOnly:  q.Featured,
		InStockOnly:   q.InStock,
		IncludeHidden: includeHidden,
		Sort:          q.Sort,
		Limit:         page.Limit,
		Offset:        page.offset(),
	}
	if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
		cat, err := cs.categoryRepo.GetBySlug(dbc, slug)
		if err != nil {
			return nil, fmt.Errorf("load category: %w", err)
		}
		if cat == nil || (!cat.IsActive && !includeHidden) {
			return nil, apierr.NotFound("category")
		}
		f.CategoryID = &cat.ID
	}
	products, total, err := cs.productRepo.List(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	summaries, err := cs.reviewRepo.Summaries(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("review summaries: %w", err)
	}
	out := &ProductPage{Items: make([]*ProductCard, 0, len(products)), Total: total, Page: page.Page, Limit: page.Limit}
	for _, p := range products {
		rating := summaries[p.ID]
		rating.ProductID = p.ID
		out.Items = append(out.Items, &ProductCard{Product: p, Rating: rating})
	}
	return out, nil
}

func (cs *catalogService) GetProduct(ctx context.Context, slugOrID string) (*ProductCard, error) {
	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return nil, apierr.NotFound("product")
	}
	return cached(ctx, cs, catalogCachePrefix+"product:"+slugOrID, func() (*ProductCard, error) {
		card, err := cs.getProduct(dbctx.Context{Ctx: ctx}, slugOrID)
		if err != nil {
			return nil, err
		}
		if !card.IsActive {
			return nil, apierr.NotFound("product")
		}
		active := make([]*types.ProductVariant, 0, len(card.Variants))
		for _, v := range card.Variants {
			if v.IsActive {
				active = append(active, v)
			}
		}
		card.Variants = active
		return card, nil
	})
}

func (cs *catalogService) getProduct(dbc dbctx.Context, slugOrID string) (*ProductCard, error) {
	var (
		p   *types.Product
		err error
	)
	if id, perr := uuid.Parse(slugOrID); perr == nil {
		p, err = cs.productRepo.GetByID(dbc, id, true)
	} else {
		p, err = cs.productRepo.GetBySlug(dbc, slugOrID, true)
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product")
	}
	rating, err := cs.reviewRepo.Summary(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}
	return &ProductCard{Product: p, Rating: rating}, nil
}
