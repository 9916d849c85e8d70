package content

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SettingSite     = "site"
	SettingPayment  = "payment"
	SettingTax      = "tax"
	SettingShipping = "shipping"
)

// Setting is a keyed json document edited from the admin console.
type Setting struct {
	Key       string         `gorm:"primaryKey;column:key" json:"key"`
	Value     datatypes.JSON `gorm:"not null;column:value" json:"value"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string { return "setting" }

type SiteSettings struct {
	StoreName        string `json:"store_name"`
	SupportEmail     string `json:"support_email"`
	Currency         string `json:"currency"`
	AnnouncementText string `json:"announcement_text"`
	ReturnWindowDays int    `json:"return_window_days"`
}

type PaymentSettings struct {
	Provider       string `json:"provider"`
	PublishableKey string `json:"publishable_key"`
	Enabled        bool   `json:"enabled"`
	TestMode       bool   `json:"test_mode"`
}

type TaxSettings struct {
	Enabled         bool  `json:"enabled"`
	RateBps         int64 `json:"rate_bps"`
	ApplyToShipping bool  `json:"apply_to_shipping"`
}

type ShippingSettings struct {
	FlatRateCents              int64 `json:"flat_rate_cents"`
	FreeShippingThresholdCents int64 `json:"free_shipping_threshold_cents"`
}

func DefaultSiteSettings() SiteSettings {
	return SiteSettings{StoreName: "Storefront", Currency: "usd", ReturnWindowDays: 30}
}

func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{Provider: "stripe", TestMode: true}
}

func DefaultTaxSettings() TaxSettings {
	return TaxSettings{}
}

func DefaultShippingSettings() ShippingSettings {
	return ShippingSettings{FlatRateCents: 500, FreeShippingThresholdCents: 5000}
}
