package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

type ProductInput struct {
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	PriceCents     int64      `json:"price_cents"`
	CompareAtCents *int64     `json:"compare_at_cents"`
	CategoryID     *uuid.UUID `json:"category_id"`
	Images         []string   `json:"images"`
	Stock          int        `json:"stock"`
	IsActive       *bool      `json:"is_active"`
	IsFeatured     bool       `json:"is_featured"`
}

type ProductPatch struct {
	Name           *string    `json:"name"`
	Slug           *string    `json:"slug"`
	Description    *string    `json:"description"`
	PriceCents     *int64     `json:"price_cents"`
	CompareAtCents *int64     `json:"compare_at_cents"`
	CategoryID     *uuid.UUID `json:"category_id"`
	ClearCategory  bool       `json:"clear_category"`
	Images         *[]string  `json:"images"`
	Stock          *int       `json:"stock"`
	IsActive       *bool      `json:"is_active"`
	IsFeatured     *bool      `json:"is_featured"`
}

type VariantInput struct {
	Name                 string `json:"name"`
	SKU                  string `json:"sku"`
	Color                string `json:"color"`
	Size                 string `json:"size"`
	PriceAdjustmentCents int64  `json:"price_adjustment_cents"`
	Stock                int    `json:"stock"`
	IsActive             *bool  `json:"is_active"`
}

type VariantPatch struct {
	Name                 *string `json:"name"`
	SKU                  *string `json:"sku"`
	Color                *string `json:"color"`
	Size                 *string `json:"size"`
	PriceAdjustmentCents *int64  `json:"price_adjustment_cents"`
	Stock                *int    `json:"stock"`
	IsActive             *bool   `json:"is_active"`
}

type CatalogAdminService interface {
	ListCategories(ctx context.Context) ([]*types.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*types.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryPatch) (*types.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductCard, error)
	CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*types.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, id uuid.UUID, in VariantPatch) (*types.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, id uuid.UUID) error
}

type catalogAdminService struct {
	*catalogService
}

func NewCatalogAdminService(db *gorm.DB, log *logger.Logger, deps CatalogDeps) CatalogAdminService {
	cs := newCatalogService(db, log, deps)
	cs.log = log.With("service", "CatalogAdminService")
	return &catalogAdminService{catalogService: cs}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ---- categories ----

func (s *catalogAdminService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.categoryRepo.List(dbctx.Context{Ctx: ctx}, false)
}

func (s *catalogAdminService) CreateCategory(ctx context.Context, in CategoryInput) (*types.Category, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_category", "name required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	slug, err := uniqueSlug(in.Slug, name, func(c string) (bool, error) {
		return s.categoryRepo.SlugExists(dbc, c, uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	c := &types.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		SortOrder:   in.SortOrder,
		IsActive:    boolOr(in.IsActive, true),
	}
	if c.ImageURL == "" && s.media != nil && s.media.Enabled() {
		if obj, err := s.media.Placeholder(ctx, "categories", name); err != nil {
			s.log.Warn("Category placeholder failed (ignored)", "slug", slug, "error", err)
		} else {
			c.ImageURL = obj.URL
		}
	}
	if err := s.categoryRepo.Create(dbc, c); err != nil {
		if isDuplicate(err) {
			return nil, apierr.Conflict("slug_taken", "slug already in use")
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, "category", c.ID)
	return c, nil
}

func (s *catalogAdminService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryPatch) (*types.Category, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	c, err := s.categoryRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound("category")
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_category", "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Slug != nil && Slugify(*in.Slug) != c.Slug {
		slug, err := uniqueSlug(*in.Slug, "", func(cand string) (bool, error) {
			return s.categoryRepo.SlugExists(dbc, cand, id)
		})
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := s.categoryRepo.Update(dbc, id, updates); err != nil {
			if isDuplicate(err) {
				return nil, apierr.Conflict("slug_taken", "slug already in use")
			}
			return nil, fmt.Errorf("update category: %w", err)
		}
		s.invalidate(ctx, "category", id)
	}
	return s.categoryRepo.GetByID(dbc, id)
}

func (s *catalogAdminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.categoryRepo.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !ok {
		return apierr.NotFound("category")
	}
	s.invalidate(ctx, "category", id)
	return nil
}

// ---- products ----

func (s *catalogAdminService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page := Page{Page: q.Page, Limit: q.Limit}.normalize()
	return s.listProducts(dbctx.Context{Ctx: ctx}, q, page, true)
}

func (s *catalogAdminService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductCard, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.getProduct(dbctx.Context{Ctx: ctx}, id.String())
}

func (s *catalogAdminService) checkCategory(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	c, err := s.categoryRepo.GetByID(dbc, *id)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if c == nil {
		return apierr.BadRequest("invalid_category", "category does not exist")
	}
	return nil
}

func cleanImages(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *catalogAdminService) CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, apierr.BadRequest("invalid_product", "name required")
	case in.PriceCents < 0:
		return nil, apierr.BadRequest("invalid_product", "price_cents cannot be negative")
	case in.Stock < 0:
		return nil, apierr.BadRequest("invalid_product", "stock cannot be negative")
	case in.CompareAtCents != nil && *in.CompareAtCents < 0:
		return nil, apierr.BadRequest("invalid_product", "compare_at_cents cannot be negative")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.checkCategory(dbc, in.CategoryID); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(in.Slug, name, func(c string) (bool, error) {
		return s.productRepo.SlugExists(dbc, c, uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	images := cleanImages(in.Images)
	if len(images) == 0 && s.media != nil && s.media.Enabled() {
		if obj, err := s.media.Placeholder(ctx, "products", name); err != nil {
			s.log.Warn("Product placeholder failed (ignored)", "slug", slug, "error", err)
		} else {
			images = []string{obj.URL}
		}
	}
	p := &types.Product{
		Name:           name,
		Slug:           slug,
		Description:    strings.TrimSpace(in.Description),
		PriceCents:     in.PriceCents,
		CompareAtCents: in.CompareAtCents,
		CategoryID:     in.CategoryID,
		Images:         types.EncodeImages(images),
		Stock:          in.Stock,
		IsActive:       boolOr(in.IsActive, true),
		IsFeatured:     in.IsFeatured,
	}
	if err := s.productRepo.Create(dbc, p); err != nil {
		if isDuplicate(err) {
			return nil, apierr.Conflict("slug_taken", "slug already in use")
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, "product", p.ID)
	return p, nil
}

func (s *catalogAdminService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.GetByID(dbc, id, false)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product")
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_product", "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Slug != nil && Slugify(*in.Slug) != p.Slug {
		slug, err := uniqueSlug(*in.Slug, "", func(c string) (bool, error) {
			return s.productRepo.SlugExists(dbc, c, id)
		})
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, apierr.BadRequest("invalid_product", "price_cents cannot be negative")
		}
		updates["price_cents"] = *in.PriceCents
	}
	if in.CompareAtCents != nil {
		if *in.CompareAtCents < 0 {
			return nil, apierr.BadRequest("invalid_product", "compare_at_cents cannot be negative")
		}
		updates["compare_at_cents"] = *in.CompareAtCents
	}
	if in.ClearCategory {
		updates["category_id"] = nil
	} else if in.CategoryID != nil {
		if err := s.checkCategory(dbc, in.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Images != nil {
		updates["images"] = types.EncodeImages(cleanImages(*in.Images))
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apierr.BadRequest("invalid_product", "stock cannot be negative")
		}
		updates["stock"] = *in.Stock
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if len(updates) > 0 {
		if err := s.productRepo.Update(dbc, id, updates); err != nil {
			if isDuplicate(err) {
				return nil, apierr.Conflict("slug_taken", "slug already in use")
			}
			return nil, fmt.Errorf("update product: %w", err)
		}
		s.invalidate(ctx, "product", id)
	}
	return s.productRepo.GetByID(dbc, id, true)
}

func (s *catalogAdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.productRepo.Delete(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !ok {
		return apierr.NotFound("product")
	}
	s.invalidate(ctx, "product", id)
	return nil
}

// ---- variants ----

func (s *catalogAdminService) loadVariant(dbc dbctx.Context, productID, id uuid.UUID) (*types.ProductVariant, error) {
	v, err := s.variantRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load variant: %w", err)
	}
	if v == nil || v.ProductID != productID {
		return nil, apierr.NotFound("variant")
	}
	return v, nil
}

func (s *catalogAdminService) CreateVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*types.ProductVariant, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_variant", "name required")
	}
	if in.Stock < 0 {
		return nil, apierr.BadRequest("invalid_variant", "stock cannot be negative")
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.productRepo.GetByID(dbc, productID, false)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product")
	}
	v := &types.ProductVariant{
		ProductID:            productID,
		Name:                 name,
		SKU:                  strings.TrimSpace(in.SKU),
		Color:                strings.TrimSpace(in.Color),
		Size:                 strings.TrimSpace(in.Size),
		PriceAdjustmentCents: in.PriceAdjustmentCents,
		Stock:                in.Stock,
		IsActive:             boolOr(in.IsActive, true),
	}
	if err := s.variantRepo.Create(dbc, v); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	s.invalidate(ctx, "product", productID)
	return v, nil
}

func (s *catalogAdminService) UpdateVariant(ctx context.Context, productID, id uuid.UUID, in VariantPatch) (*types.ProductVariant, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.loadVariant(dbc, productID, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_variant", "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.SKU != nil {
		updates["sku"] = strings.TrimSpace(*in.SKU)
	}
	if in.Color != nil {
		updates["color"] = strings.TrimSpace(*in.Color)
	}
	if in.Size != nil {
		updates["size"] = strings.TrimSpace(*in.Size)
	}
	if in.PriceAdjustmentCents != nil {
		updates["price_adjustment_cents"] = *in.PriceAdjustmentCents
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apierr.BadRequest("invalid_variant", "stock cannot be negative")
		}
		updates["stock"] = *in.Stock
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := s.variantRepo.Update(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update variant: %w", err)
		}
		s.invalidate(ctx, "product", productID)
	}
	return s.variantRepo.GetByID(dbc, id)
}

func (s *catalogAdminService) DeleteVariant(ctx context.Context, productID, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.loadVariant(dbc, productID, id); err != nil {
		return err
	}
	if _, err := s.variantRepo.Delete(dbc, id); err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	s.invalidate(ctx, "product", productID)
	return nil
}
