package pricing

import (
	"github.com/yungbote/storefront-backend/internal/domain"
)

// Item is a priced cart line.
type Item struct {
	UnitPriceCents int64
	Quantity       int
}

type Quote struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
	ItemCount     int   `json:"item_count"`
	FreeShipping  bool  `json:"free_shipping"`
}

// UnitPrice is the product price plus the variant adjustment, floored at zero.
func UnitPrice(p *domain.Product, v *domain.ProductVariant) int64 {
	if p == nil {
		return 0
	}
	price := p.PriceCents
	if v != nil {
		price += v.PriceAdjustmentCents
	}
	if price < 0 {
		return 0
	}
	return price
}

func Subtotal(items []Item) (cents int64, count int) {
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		cents += it.UnitPriceCents * int64(it.Quantity)
		count += it.Quantity
	}
	return cents, count
}

// Shipping is free for an empty cart or once the subtotal reaches a
// positive threshold; otherwise the flat rate applies.
func Shipping(subtotal int64, s domain.ShippingSettings) int64 {
	if subtotal <= 0 {
		return 0
	}
	if s.FreeShippingThresholdCents > 0 && subtotal >= s.FreeShippingThresholdCents {
		return 0
	}
	if s.FlatRateCents < 0 {
		return 0
	}
	return s.FlatRateCents
}

// Tax rounds half up to the nearest cent.
func Tax(subtotal, shipping int64, t domain.TaxSettings) int64 {
	if !t.Enabled || t.RateBps <= 0 {
		return 0
	}
	taxable := subtotal
	if t.ApplyToShipping {
		taxable += shipping
	}
	if taxable <= 0 {
		return 0
	}
	return (taxable*t.RateBps + 5000) / 10000
}

func Calculate(items []Item, tax domain.TaxSettings, ship domain.ShippingSettings) Quote {
	subtotal, count := Subtotal(items)
	shipping := Shipping(subtotal, ship)
	taxCents := Tax(subtotal, shipping, tax)
	return Quote{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      taxCents,
		TotalCents:    subtotal + shipping + taxCents,
		ItemCount:     count,
		FreeShipping:  subtotal > 0 && shipping == 0,
	}
}
