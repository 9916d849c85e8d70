package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/cart"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
)

const (
	guestCartPrefix = "guestcart:"
	guestCartTTL    = 30 * 24 * time.Hour
	guestCartTries  = 10
)

// GuestCartStore keeps anonymous carts keyed by the browser's guest id.
type GuestCartStore interface {
	Load(ctx context.Context, guestID string) (*cart.GuestCart, error)
	// Update applies fn to the current cart and stores the result only if no
	// other writer got there first, rerunning fn on a fresh copy otherwise.
	Update(ctx context.Context, guestID string, fn func(g *cart.GuestCart) error) (*cart.GuestCart, error)
	Delete(ctx context.Context, guestID string) error
}

type cacheGuestStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewGuestCartStore stores guest carts in c (Redis or in-memory).
func NewGuestCartStore(c cache.Cache, ttl time.Duration) GuestCartStore {
	if ttl <= 0 {
		ttl = guestCartTTL
	}
	return &cacheGuestStore{cache: c, ttl: ttl}
}

// ValidGuestID accepts only UUIDs so the id is safe to use as a cache key.
func ValidGuestID(id string) (string, error) {
	id = strings.TrimSpace(id)
	parsed, err := uuid.Parse(id)
	if err != nil || parsed == uuid.Nil {
		return "", apierr.BadRequest("invalid_guest_id", "guest id must be a uuid")
	}
	return parsed.String(), nil
}

// Load returns an empty cart for an unknown id.
func (s *cacheGuestStore) Load(ctx context.Context, guestID string) (*cart.GuestCart, error) {
	g, _, err := s.read(ctx, guestID)
	return g, err
}

// read also returns the raw stored bytes, nil when absent, for the swap.
func (s *cacheGuestStore) read(ctx context.Context, guestID string) (*cart.GuestCart, []byte, error) {
	raw, err := s.cache.Get(ctx, guestCartPrefix+guestID)
	if errors.Is(err, cache.ErrMiss) {
		return cart.NewGuestCart(guestID), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load guest cart: %w", err)
	}
	var g *cart.GuestCart
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, nil, fmt.Errorf("load guest cart: %w", err)
	}
	if g == nil {
		g = cart.NewGuestCart(guestID)
	}
	if g.Lines == nil {
		g.Lines = []cart.Line{}
	}
	g.ID = guestID
	return g, raw, nil
}

func (s *cacheGuestStore) Update(ctx context.Context, guestID string, fn func(g *cart.GuestCart) error) (*cart.GuestCart, error) {
	for i := 0; i < guestCartTries; i++ {
		g, raw, err := s.read(ctx, guestID)
		if err != nil {
			return nil, err
		}
		if err := fn(g); err != nil {
			return nil, err
		}
		var next []byte
		if !g.IsEmpty() {
			if next, err = json.Marshal(g); err != nil {
				return nil, fmt.Errorf("encode guest cart: %w", err)
			}
		}
		ok, err := s.cache.CompareAndSwap(ctx, guestCartPrefix+guestID, raw, next, s.ttl)
		if err != nil {
			return nil, fmt.Errorf("save guest cart: %w", err)
		}
		if ok {
			return g, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rand.N(time.Duration(i+1) * 2 * time.Millisecond)):
		}
	}
	return nil, apierr.Conflict("cart_conflict", "cart changed while saving, please retry")
}

func (s *cacheGuestStore) Delete(ctx context.Context, guestID string) error {
	if err := s.cache.Delete(ctx, guestCartPrefix+guestID); err != nil {
		return fmt.Errorf("delete guest cart: %w", err)
	}
	return nil
}
