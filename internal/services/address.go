package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type AddressInput struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (in AddressInput) normalize() (AddressInput, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.Phone = strings.TrimSpace(in.Phone)
	switch {
	case in.FullName == "":
		return in, apierr.BadRequest("invalid_address", "full_name required")
	case in.Line1 == "":
		return in, apierr.BadRequest("invalid_address", "line1 required")
	case in.City == "":
		return in, apierr.BadRequest("invalid_address", "city required")
	case in.PostalCode == "":
		return in, apierr.BadRequest("invalid_address", "postal_code required")
	case len(in.Country) != 2:
		return in, apierr.BadRequest("invalid_address", "country must be a two-letter code")
	}
	return in, nil
}

type AddressService interface {
	List(ctx context.Context) ([]*types.Address, error)
	Create(ctx context.Context, in AddressInput) (*types.Address, error)
	Update(ctx context.Context, id uuid.UUID, in AddressInput) (*types.Address, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) (*types.Address, error)
}

type addressService struct {
	db          *gorm.DB
	log         *logger.Logger
	addressRepo repos.AddressRepo
}

func NewAddressService(db *gorm.DB, log *logger.Logger, addressRepo repos.AddressRepo) AddressService {
	return &addressService{db: db, log: log.With("service", "AddressService"), addressRepo: addressRepo}
}

func (s *addressService) List(ctx context.Context) ([]*types.Address, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.addressRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

// Create makes the address the default when asked to or when it is the
// user's first one.
func (s *addressService) Create(ctx context.Context, in AddressInput) (*types.Address, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err = in.normalize()
	if err != nil {
		return nil, err
	}
	a := &types.Address{
		UserID:     userID,
		FullName:   in.FullName,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := s.addressRepo.CountByUser(dbc, userID)
		if err != nil {
			return fmt.Errorf("count addresses: %w", err)
		}
		a.IsDefault = in.IsDefault || n == 0
		if err := s.addressRepo.Create(dbc, a); err != nil {
			return fmt.Errorf("create address: %w", err)
		}
		if a.IsDefault {
			return s.addressRepo.ClearDefault(dbc, userID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *addressService) Update(ctx context.Context, id uuid.UUID, in AddressInput) (*types.Address, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err = in.normalize()
	if err != nil {
		return nil, err
	}
	var out *types.Address
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		a, err := s.addressRepo.GetForUser(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load address: %w", err)
		}
		if a == nil {
			return apierr.NotFound("address")
		}
		a.FullName, a.Line1, a.Line2 = in.FullName, in.Line1, in.Line2
		a.City, a.State, a.PostalCode = in.City, in.State, in.PostalCode
		a.Country, a.Phone = in.Country, in.Phone
		if err := s.addressRepo.Update(dbc, a); err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		if in.IsDefault && !a.IsDefault {
			if err := s.makeDefault(dbc, userID, a.ID); err != nil {
				return err
			}
			a.IsDefault = true
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete promotes the newest remaining address when the default is removed.
func (s *addressService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		a, err := s.addressRepo.GetForUser(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load address: %w", err)
		}
		if a == nil {
			return apierr.NotFound("address")
		}
		if _, err := s.addressRepo.Delete(dbc, userID, id); err != nil {
			return fmt.Errorf("delete address: %w", err)
		}
		if !a.IsDefault {
			return nil
		}
		next, err := s.addressRepo.Newest(dbc, userID)
		if err != nil {
			return fmt.Errorf("load newest address: %w", err)
		}
		if next == nil {
			return nil
		}
		return s.addressRepo.MarkDefault(dbc, userID, next.ID)
	})
}

func (s *addressService) SetDefault(ctx context.Context, id uuid.UUID) (*types.Address, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Address
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		a, err := s.addressRepo.GetForUser(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load address: %w", err)
		}
		if a == nil {
			return apierr.NotFound("address")
		}
		if err := s.makeDefault(dbc, userID, id); err != nil {
			return err
		}
		a.IsDefault = true
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *addressService) makeDefault(dbc dbctx.Context, userID, id uuid.UUID) error {
	if err := s.addressRepo.ClearDefault(dbc, userID, id); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}
	if err := s.addressRepo.MarkDefault(dbc, userID, id); err != nil {
		return fmt.Errorf("mark default: %w", err)
	}
	return nil
}
