package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

var currencyCode = regexp.MustCompile(`^[a-z]{3}$`)

// AllSettings is the admin view of every settings document.
type AllSettings struct {
	Site     types.SiteSettings     `json:"site"`
	Payment  types.PaymentSettings  `json:"payment"`
	Tax      types.TaxSettings      `json:"tax"`
	Shipping types.ShippingSettings `json:"shipping"`
}

type PublicPaymentSettings struct {
	Provider       string `json:"provider"`
	PublishableKey string `json:"publishable_key"`
	Enabled        bool   `json:"enabled"`
	TestMode       bool   `json:"test_mode"`
}

// PublicSettings is what the storefront may read without signing in.
type PublicSettings struct {
	Site     types.SiteSettings     `json:"site"`
	Payment  PublicPaymentSettings  `json:"payment"`
	Shipping types.ShippingSettings `json:"shipping"`
}

type SettingsService interface {
	Public(ctx context.Context) (*PublicSettings, error)
	All(ctx context.Context) (*AllSettings, error)
	// Update replaces one settings document after validating it.
	Update(ctx context.Context, key string, raw json.RawMessage) (*AllSettings, error)

	Site(dbc dbctx.Context) (types.SiteSettings, error)
	Pricing(dbc dbctx.Context) (types.TaxSettings, types.ShippingSettings, error)
}

type settingsService struct {
	log         *logger.Logger
	settingRepo repos.SettingRepo
}

func NewSettingsService(log *logger.Logger, settingRepo repos.SettingRepo) SettingsService {
	return &settingsService{log: log.With("service", "SettingsService"), settingRepo: settingRepo}
}

// load decodes key into out, which must already hold the defaults. Stored
// fields override defaults; missing fields keep them.
func (s *settingsService) load(dbc dbctx.Context, key string, out any) error {
	row, err := s.settingRepo.Get(dbc, key)
	if err != nil {
		return fmt.Errorf("load %s settings: %w", key, err)
	}
	if row == nil || len(row.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(row.Value, out); err != nil {
		s.log.Warn("Stored settings are malformed; using defaults", "key", key, "error", err)
	}
	return nil
}

func (s *settingsService) Site(dbc dbctx.Context) (types.SiteSettings, error) {
	out := types.DefaultSiteSettings()
	err := s.load(dbc, types.SettingSite, &out)
	if out.ReturnWindowDays <= 0 {
		out.ReturnWindowDays = types.DefaultSiteSettings().ReturnWindowDays
	}
	return out, err
}

func (s *settingsService) Pricing(dbc dbctx.Context) (types.TaxSettings, types.ShippingSettings, error) {
	tax := types.DefaultTaxSettings()
	ship := types.DefaultShippingSettings()
	if err := s.load(dbc, types.SettingTax, &tax); err != nil {
		return tax, ship, err
	}
	if err := s.load(dbc, types.SettingShipping, &ship); err != nil {
		return tax, ship, err
	}
	return tax, ship, nil
}

func (s *settingsService) all(dbc dbctx.Context) (*AllSettings, error) {
	site, err := s.Site(dbc)
	if err != nil {
		return nil, err
	}
	pay := types.DefaultPaymentSettings()
	if err := s.load(dbc, types.SettingPayment, &pay); err != nil {
		return nil, err
	}
	tax, ship, err := s.Pricing(dbc)
	if err != nil {
		return nil, err
	}
	return &AllSettings{Site: site, Payment: pay, Tax: tax, Shipping: ship}, nil
}

func (s *settingsService) Public(ctx context.Context) (*PublicSettings, error) {
	all, err := s.all(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	return &PublicSettings{
		Site: all.Site,
		Payment: PublicPaymentSettings{
			Provider:       all.Payment.Provider,
			PublishableKey: all.Payment.PublishableKey,
			Enabled:        all.Payment.Enabled,
			TestMode:       all.Payment.TestMode,
		},
		Shipping: all.Shipping,
	}, nil
}

func (s *settingsService) All(ctx context.Context) (*AllSettings, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.all(dbctx.Context{Ctx: ctx})
}

func (s *settingsService) Update(ctx context.Context, key string, raw json.RawMessage) (*AllSettings, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	var doc any
	switch key {
	case types.SettingSite:
		v := types.DefaultSiteSettings()
		if err := strictDecode(raw, &v); err != nil {
			return nil, err
		}
		v.StoreName = strings.TrimSpace(v.StoreName)
		v.Currency = strings.ToLower(strings.TrimSpace(v.Currency))
		if v.StoreName == "" {
			return nil, apierr.BadRequest("invalid_settings", "store_name required")
		}
		if !currencyCode.MatchString(v.Currency) {
			return nil, apierr.BadRequest("invalid_settings", "currency must be a three-letter ISO code")
		}
		if v.SupportEmail != "" {
			if v.SupportEmail, err = normalizeEmail(v.SupportEmail); err != nil {
				return nil, err
			}
		}
		if v.ReturnWindowDays < 0 || v.ReturnWindowDays > 365 {
			return nil, apierr.BadRequest("invalid_settings", "return_window_days must be between 0 and 365")
		}
		doc = v
	case types.SettingPayment:
		v := types.DefaultPaymentSettings()
		if err := strictDecode(raw, &v); err != nil {
			return nil, err
		}
		v.Provider = strings.TrimSpace(v.Provider)
		v.PublishableKey = strings.TrimSpace(v.PublishableKey)
		if v.Enabled && v.PublishableKey == "" {
			return nil, apierr.BadRequest("invalid_settings", "publishable_key required when payments are enabled")
		}
		doc = v
	case types.SettingTax:
		v := types.DefaultTaxSettings()
		if err := strictDecode(raw, &v); err != nil {
			return nil, err
		}
		if v.RateBps < 0 || v.RateBps > 10000 {
			return nil, apierr.BadRequest("invalid_settings", "rate_bps must be between 0 and 10000")
		}
		doc = v
	case types.SettingShipping:
		v := types.DefaultShippingSettings()
		if err := strictDecode(raw, &v); err != nil {
			return nil, err
		}
		if v.FlatRateCents < 0 || v.FreeShippingThresholdCents < 0 {
			return nil, apierr.BadRequest("invalid_settings", "shipping amounts cannot be negative")
		}
		doc = v
	default:
		return nil, apierr.NotFound("settings " + key)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, internalErr("encode settings", err)
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.settingRepo.Upsert(dbc, key, datatypes.JSON(b)); err != nil {
		return nil, fmt.Errorf("save %s settings: %w", key, err)
	}
	s.log.Info("Settings updated", "key", key, "by", adminID)
	return s.all(dbc)
}

func strictDecode(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return apierr.BadRequest("invalid_settings", err.Error())
	}
	return nil
}
