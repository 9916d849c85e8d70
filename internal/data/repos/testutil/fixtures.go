package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleCustomer,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	if err := tx.WithContext(ctx).Model(u).Update("role", types.RoleAdmin).Error; err != nil {
		tb.Fatalf("promote admin: %v", err)
	}
	u.Role = types.RoleAdmin
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Category {
	tb.Helper()
	c := &types.Category{Name: slug, Slug: slug, IsActive: true}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, priceCents int64, stock int) *types.Product {
	tb.Helper()
	p := &types.Product{
		Name:       slug,
		Slug:       slug,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
		Images:     types.EncodeImages([]string{"https://cdn.example.com/" + slug + ".png"}),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedVariant(tb testing.TB, ctx context.Context, tx *gorm.DB, productID uuid.UUID, name string, adjCents int64, stock int) *types.ProductVariant {
	tb.Helper()
	v := &types.ProductVariant{
		ProductID:            productID,
		Name:                 name,
		SKU:                  name,
		PriceAdjustmentCents: adjCents,
		Stock:                stock,
		IsActive:             true,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed variant: %v", err)
	}
	return v
}

func SeedAddress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, isDefault bool) *types.Address {
	tb.Helper()
	a := &types.Address{
		UserID:     userID,
		FullName:   "A B",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
		IsDefault:  isDefault,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed address: %v", err)
	}
	return a
}

// SeedOrder creates an order with one item per product at the product price.
func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string, products ...*types.Product) *types.Order {
	tb.Helper()
	o := &types.Order{
		OrderNumber: "SO-" + uuid.NewString()[:8],
		UserID:      userID,
		Status:      status,
		Currency:    "usd",
	}
	for _, p := range products {
		o.Items = append(o.Items, &types.OrderItem{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       1,
		})
		o.SubtotalCents += p.PriceCents
	}
	o.TotalCents = o.SubtotalCents
	if status == types.OrderStatusDelivered {
		now := time.Now().UTC()
		o.DeliveredAt = &now
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}
