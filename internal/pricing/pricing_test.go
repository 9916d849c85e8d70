package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/storefront-backend/internal/domain"
)

func TestUnitPrice(t *testing.T) {
	p := &domain.Product{PriceCents: 2000}
	assert.Equal(t, int64(2000), UnitPrice(p, nil))
	assert.Equal(t, int64(2500), UnitPrice(p, &domain.ProductVariant{PriceAdjustmentCents: 500}))
	assert.Equal(t, int64(0), UnitPrice(p, &domain.ProductVariant{PriceAdjustmentCents: -3000}))
	assert.Equal(t, int64(0), UnitPrice(nil, nil))
}

func TestShipping(t *testing.T) {
	s := domain.ShippingSettings{FlatRateCents: 500, FreeShippingThresholdCents: 5000}
	assert.Equal(t, int64(0), Shipping(0, s))
	assert.Equal(t, int64(500), Shipping(4999, s))
	assert.Equal(t, int64(0), Shipping(5000, s))

	noThreshold := domain.ShippingSettings{FlatRateCents: 700}
	assert.Equal(t, int64(700), Shipping(1_000_000, noThreshold))
}

func TestTaxRoundsHalfUp(t *testing.T) {
	tax := domain.TaxSettings{Enabled: true, RateBps: 825}
	// 1000 * 8.25% = 82.5 -> 83
	assert.Equal(t, int64(83), Tax(1000, 0, tax))
	assert.Equal(t, int64(0), Tax(1000, 0, domain.TaxSettings{RateBps: 825}))

	withShipping := domain.TaxSettings{Enabled: true, RateBps: 1000, ApplyToShipping: true}
	assert.Equal(t, int64(150), Tax(1000, 500, withShipping))
}

func TestCalculate(t *testing.T) {
	q := Calculate(
		[]Item{{UnitPriceCents: 1500, Quantity: 2}, {UnitPriceCents: 999, Quantity: 1}, {UnitPriceCents: 100, Quantity: 0}},
		domain.TaxSettings{Enabled: true, RateBps: 500},
		domain.ShippingSettings{FlatRateCents: 500, FreeShippingThresholdCents: 5000},
	)
	assert.Equal(t, int64(3999), q.SubtotalCents)
	assert.Equal(t, int64(500), q.ShippingCents)
	assert.Equal(t, int64(200), q.TaxCents)
	assert.Equal(t, int64(4699), q.TotalCents)
	assert.Equal(t, 3, q.ItemCount)
	assert.False(t, q.FreeShipping)
}

func TestCalculateEmptyCart(t *testing.T) {
	q := Calculate(nil, domain.TaxSettings{Enabled: true, RateBps: 500}, domain.DefaultShippingSettings())
	assert.Equal(t, Quote{}, q)
}
