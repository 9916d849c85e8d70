package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/cart"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/pricing"
	"github.com/yungbote/storefront-backend/internal/realtime"
)

const maxLineQuantity = 999

// CartLine is a cart line joined with live catalog data. Lines whose product
// or variant is gone or hidden stay in the cart with Available=false.
type CartLine struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Quantity       int        `json:"quantity"`
	Slug           string     `json:"slug,omitempty"`
	Name           string     `json:"name"`
	VariantName    string     `json:"variant_name,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	LineTotalCents int64      `json:"line_total_cents"`
	Stock          int        `json:"stock"`
	InStock        bool       `json:"in_stock"`
	Available      bool       `json:"available"`

	product *types.Product
	variant *types.ProductVariant
}

type CartView struct {
	Lines    []*CartLine   `json:"lines"`
	Quote    pricing.Quote `json:"quote"`
	Guest    bool          `json:"guest"`
	Revision string        `json:"revision,omitempty"`
}

type CartItemInput struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"`
}

// ConsolidateInput names the guest cart to fold into the signed-in user's
// cart. When Lines is empty the stored guest cart for GuestID is used.
type ConsolidateInput struct {
	GuestID  string      `json:"guest_id"`
	Revision string      `json:"revision"`
	Lines    []cart.Line `json:"lines"`
}

type ConsolidateResult struct {
	Cart    *CartView `json:"cart"`
	Applied bool      `json:"applied"`
	Lines   int       `json:"lines"`
}

type CartService interface {
	Get(ctx context.Context) (*CartView, error)
	Add(ctx context.Context, in CartItemInput) (*CartView, error)
	// UpdateQuantity sets a line's quantity; zero or less removes the line.
	UpdateQuantity(ctx context.Context, in CartItemInput) (*CartView, error)
	Remove(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*CartView, error)
	Clear(ctx context.Context) (*CartView, error)
	// Enrich prices a client-held guest list without storing it. The returned
	// Revision is the token Consolidate expects alongside those lines.
	Enrich(ctx context.Context, lines []cart.Line) (*CartView, error)
	Consolidate(ctx context.Context, in ConsolidateInput) (*ConsolidateResult, error)
}

type CartDeps struct {
	CartItemRepo  repos.CartItemRepo
	CartMergeRepo repos.CartMergeRepo
	ProductRepo   repos.ProductRepo
	VariantRepo   repos.VariantRepo
	Guests        GuestCartStore
	Settings      SettingsService
	Emitter       *realtime.Emitter
	Metrics       *observability.Metrics
}

type cartService struct {
	db  *gorm.DB
	log *logger.Logger
	CartDeps
}

func NewCartService(db *gorm.DB, log *logger.Logger, deps CartDeps) CartService {
	return &cartService{db: db, log: log.With("service", "CartService"), CartDeps: deps}
}

// cartOwner is who a cart belongs to: the signed-in user, else the
// guest id sent by the browser.
type cartOwner struct {
	userID  uuid.UUID
	guestID string
}

func (o cartOwner) guest() bool { return o.userID == uuid.Nil }

func (cs *cartService) owner(ctx context.Context, required bool) (cartOwner, error) {
	if userID, err := requireUser(ctx); err == nil {
		return cartOwner{userID: userID}, nil
	}
	raw := guestID(ctx)
	if raw == "" {
		if required {
			return cartOwner{}, apierr.BadRequest("guest_id_required", "sign in or send X-Guest-Id")
		}
		return cartOwner{}, nil
	}
	id, err := ValidGuestID(raw)
	if err != nil {
		return cartOwner{}, err
	}
	return cartOwner{guestID: id}, nil
}

func (cs *cartService) Get(ctx context.Context) (*CartView, error) {
	o, err := cs.owner(ctx, false)
	if err != nil {
		return nil, err
	}
	return cs.view(dbctx.Context{Ctx: ctx}, o)
}

func (cs *cartService) view(dbc dbctx.Context, o cartOwner) (*CartView, error) {
	if !o.guest() {
		items, err := cs.CartItemRepo.ListByUser(dbc, o.userID)
		if err != nil {
			return nil, fmt.Errorf("list cart: %w", err)
		}
		lines := make([]cart.Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, cart.Line{ProductID: it.ProductID, VariantID: cart.NewKey(it.ProductID, &it.VariantID).Variant(), Quantity: it.Quantity})
		}
		return cs.enrich(dbc, lines)
	}
	if o.guestID == "" {
		return cs.enrich(dbc, nil)
	}
	g, err := cs.Guests.Load(dbc.Ctx, o.guestID)
	if err != nil {
		return nil, err
	}
	v, err := cs.enrich(dbc, g.Lines)
	if err != nil {
		return nil, err
	}
	v.Guest = true
	v.Revision = g.Revision
	return v, nil
}

// validateLine checks the product and variant can be put in a cart.
func (cs *cartService) validateLine(dbc dbctx.Context, productID uuid.UUID, variantID *uuid.UUID) error {
	if productID == uuid.Nil {
		return apierr.BadRequest("invalid_request", "product_id required")
	}
	p, err := cs.ProductRepo.GetByID(dbc, productID, false)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return apierr.NotFound("product")
	}
	if variantID == nil || *variantID == uuid.Nil {
		return nil
	}
	v, err := cs.VariantRepo.GetByID(dbc, *variantID)
	if err != nil {
		return fmt.Errorf("load variant: %w", err)
	}
	if v == nil || v.ProductID != productID || !v.IsActive {
		return apierr.NotFound("variant")
	}
	return nil
}

func (cs *cartService) Add(ctx context.Context, in CartItemInput) (*CartView, error) {
	if in.Quantity <= 0 {
		return nil, apierr.BadRequest("invalid_quantity", "quantity must be positive")
	}
	return cs.mutate(ctx, in.ProductID, in.VariantID, in.Quantity > maxLineQuantity, true, func(dbc dbctx.Context, o cartOwner, key cart.LineKey) error {
		if o.guest() {
			_, err := cs.Guests.Update(dbc.Ctx, o.guestID, func(g *cart.GuestCart) error {
				if err := g.Add(key.ProductID, key.Variant(), in.Quantity); err != nil {
					return apierr.BadRequest("invalid_request", err.Error())
				}
				if capLine(g, key) {
					return apierr.BadRequest("invalid_quantity", "quantity too large")
				}
				return nil
			})
			return err
		}
		if err := cs.CartItemRepo.AddQuantity(dbc, o.userID, key.ProductID, key.VariantID, in.Quantity); err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
		row, err := cs.CartItemRepo.Get(dbc, o.userID, key.ProductID, key.VariantID)
		if err != nil {
			return fmt.Errorf("reload line: %w", err)
		}
		if row != nil && row.Quantity > maxLineQuantity {
			return apierr.BadRequest("invalid_quantity", "quantity too large")
		}
		return nil
	})
}

func capLine(g *cart.GuestCart, key cart.LineKey) bool {
	for _, l := range g.Lines {
		if l.Key() == key {
			return l.Quantity > maxLineQuantity
		}
	}
	return false
}

func (cs *cartService) UpdateQuantity(ctx context.Context, in CartItemInput) (*CartView, error) {
	// Shrinking or removing a line must work after the product is hidden.
	return cs.mutate(ctx, in.ProductID, in.VariantID, in.Quantity > maxLineQuantity, in.Quantity > 0, func(dbc dbctx.Context, o cartOwner, key cart.LineKey) error {
		if o.guest() {
			_, err := cs.Guests.Update(dbc.Ctx, o.guestID, func(g *cart.GuestCart) error {
				if err := g.SetQuantity(key.ProductID, key.Variant(), in.Quantity); err != nil {
					return apierr.BadRequest("invalid_request", err.Error())
				}
				return nil
			})
			return err
		}
		if in.Quantity <= 0 {
			if _, err := cs.CartItemRepo.Delete(dbc, o.userID, key.ProductID, key.VariantID); err != nil {
				return fmt.Errorf("remove line: %w", err)
			}
			return nil
		}
		if err := cs.CartItemRepo.SetQuantity(dbc, o.userID, key.ProductID, key.VariantID, in.Quantity); err != nil {
			return fmt.Errorf("set quantity: %w", err)
		}
		return nil
	})
}

func (cs *cartService) Remove(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*CartView, error) {
	return cs.mutate(ctx, productID, variantID, false, false, func(dbc dbctx.Context, o cartOwner, key cart.LineKey) error {
		if o.guest() {
			_, err := cs.Guests.Update(dbc.Ctx, o.guestID, func(g *cart.GuestCart) error {
				g.Remove(key.ProductID, key.Variant())
				return nil
			})
			return err
		}
		if _, err := cs.CartItemRepo.Delete(dbc, o.userID, key.ProductID, key.VariantID); err != nil {
			return fmt.Errorf("remove line: %w", err)
		}
		return nil
	})
}

func (cs *cartService) Clear(ctx context.Context) (*CartView, error) {
	o, err := cs.owner(ctx, true)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if o.guest() {
		if err := cs.Guests.Delete(ctx, o.guestID); err != nil {
			return nil, err
		}
	} else {
		if err := cs.CartItemRepo.ClearByUser(dbc, o.userID); err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
		cs.Emitter.ToUser(ctx, o.userID, realtime.SSEEventCartUpdated, map[string]any{"reason": "cleared"})
	}
	return cs.view(dbc, o)
}

// mutate resolves the owner, optionally validates the line, applies fn and
// returns the fresh cart. Server-side writes run in a transaction.
func (cs *cartService) mutate(
	ctx context.Context,
	productID uuid.UUID,
	variantID *uuid.UUID,
	tooLarge bool,
	validate bool,
	fn func(dbc dbctx.Context, o cartOwner, key cart.LineKey) error,
) (*CartView, error) {
	if tooLarge {
		return nil, apierr.BadRequest("invalid_quantity", "quantity too large")
	}
	if productID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_request", "product_id required")
	}
	o, err := cs.owner(ctx, true)
	if err != nil {
		return nil, err
	}
	key := cart.NewKey(productID, variantID)
	dbc := dbctx.Context{Ctx: ctx}
	if validate {
		if err := cs.validateLine(dbc, productID, key.Variant()); err != nil {
			return nil, err
		}
	}
	if o.guest() {
		if err := fn(dbc, o, key); err != nil {
			return nil, err
		}
		return cs.view(dbc, o)
	}
	if err := inTx(cs.db, dbc, func(txc dbctx.Context) error { return fn(txc, o, key) }); err != nil {
		return nil, err
	}
	cs.Emitter.ToUser(ctx, o.userID, realtime.SSEEventCartUpdated, map[string]any{"product_id": productID})
	return cs.view(dbc, o)
}

func (cs *cartService) Enrich(ctx context.Context, lines []cart.Line) (*CartView, error) {
	v, err := cs.enrich(dbctx.Context{Ctx: ctx}, cart.Normalize(lines))
	if err != nil {
		return nil, err
	}
	v.Guest = true
	v.Revision = uuid.NewString()
	return v, nil
}

func (cs *cartService) enrich(dbc dbctx.Context, lines []cart.Line) (*CartView, error) {
	out := &CartView{Lines: make([]*CartLine, 0, len(lines))}
	if len(lines) == 0 {
		tax, ship, err := cs.Settings.Pricing(dbc)
		if err != nil {
			return nil, err
		}
		out.Quote = pricing.Calculate(nil, tax, ship)
		return out, nil
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	variantIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
		if l.VariantID != nil && *l.VariantID != uuid.Nil {
			variantIDs = append(variantIDs, *l.VariantID)
		}
	}
	products, err := cs.ProductRepo.GetByIDs(dbc, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byProduct := make(map[uuid.UUID]*types.Product, len(products))
	for _, p := range products {
		byProduct[p.ID] = p
	}
	byVariant := map[uuid.UUID]*types.ProductVariant{}
	if len(variantIDs) > 0 {
		variants, err := cs.VariantRepo.GetByIDs(dbc, variantIDs)
		if err != nil {
			return nil, fmt.Errorf("load variants: %w", err)
		}
		for _, v := range variants {
			byVariant[v.ID] = v
		}
	}

	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		key := l.Key()
		line := &CartLine{ProductID: l.ProductID, VariantID: key.Variant(), Quantity: l.Quantity}
		p := byProduct[l.ProductID]
		var v *types.ProductVariant
		if key.VariantID != uuid.Nil {
			v = byVariant[key.VariantID]
		}
		line.product, line.variant = p, v
		if p != nil {
			line.Slug = p.Slug
			line.Name = p.Name
			line.ImageURL = p.PrimaryImage()
			line.Stock = p.Stock
			line.Available = p.IsActive
		}
		if key.VariantID != uuid.Nil {
			if v == nil || v.ProductID != l.ProductID || !v.IsActive {
				line.Available = false
			} else {
				line.VariantName = v.Name
				line.Stock = v.Stock
			}
		}
		if line.Available {
			line.UnitPriceCents = pricing.UnitPrice(p, v)
			line.LineTotalCents = line.UnitPriceCents * int64(line.Quantity)
			line.InStock = line.Stock > 0 && line.Stock >= line.Quantity
			items = append(items, pricing.Item{UnitPriceCents: line.UnitPriceCents, Quantity: line.Quantity})
		}
		out.Lines = append(out.Lines, line)
	}
	tax, ship, err := cs.Settings.Pricing(dbc)
	if err != nil {
		return nil, err
	}
	out.Quote = pricing.Calculate(items, tax, ship)
	return out, nil
}

// Consolidate folds a guest cart into the signed-in user's cart. The merge
// plan, every upsert and the CartMerge record commit in one transaction, so
// a retried or concurrent consolidation of the same revision adds nothing.
func (cs *cartService) Consolidate(ctx context.Context, in ConsolidateInput) (*ConsolidateResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if in.GuestID == "" {
		in.GuestID = guestID(ctx)
	}
	gid, err := ValidGuestID(in.GuestID)
	if err != nil {
		return nil, err
	}

	var stored *cart.GuestCart
	lines := cart.Normalize(in.Lines)
	revision := in.Revision
	if len(in.Lines) == 0 {
		if stored, err = cs.Guests.Load(ctx, gid); err != nil {
			return nil, err
		}
		lines = cart.Normalize(stored.Lines)
		revision = stored.Revision
	}
	switch {
	case revision != "":
	case stored != nil:
		// Every mutation mints a revision; an unstamped stored cart is consumed below.
		revision = uuid.NewString()
	case len(lines) > 0:
		return nil, apierr.BadRequest("revision_required", "revision required with lines")
	}

	dbc := dbctx.Context{Ctx: ctx}
	owner := cartOwner{userID: userID}
	if len(lines) == 0 {
		cs.Metrics.IncCartMerge("empty")
		v, err := cs.view(dbc, owner)
		if err != nil {
			return nil, err
		}
		return &ConsolidateResult{Cart: v}, nil
	}

	applied, merged := false, 0
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		known, err := cs.mergeable(txc, lines)
		if err != nil {
			return err
		}
		claimed, err := cs.CartMergeRepo.Claim(txc, userID, gid, revision, len(known))
		if err != nil {
			return fmt.Errorf("record cart merge: %w", err)
		}
		if !claimed {
			return nil
		}
		rows, err := cs.CartItemRepo.ListByUser(txc, userID)
		if err != nil {
			return fmt.Errorf("list cart: %w", err)
		}
		server := make(map[cart.LineKey]int, len(rows))
		for _, r := range rows {
			server[cart.LineKey{ProductID: r.ProductID, VariantID: r.VariantID}] = r.Quantity
		}
		plan := cart.PlanMerge(server, known)
		for _, op := range plan.Ops {
			// Both op kinds are an upsert of +Quantity on the line.
			if err := cs.CartItemRepo.AddQuantity(txc, userID, op.Key.ProductID, op.Key.VariantID, op.Quantity); err != nil {
				return fmt.Errorf("apply %s %s: %w", op.Kind, op.Key, err)
			}
		}
		applied, merged = true, len(plan.Ops)
		return nil
	})
	if err != nil {
		cs.Metrics.IncCartMerge("error")
		return nil, err
	}

	if applied {
		cs.Metrics.IncCartMerge("applied")
		cs.log.Info("Guest cart consolidated", "user_id", userID, "lines", merged)
		cs.Emitter.ToUser(ctx, userID, realtime.SSEEventCartUpdated, map[string]any{"reason": "consolidated"})
	} else {
		cs.Metrics.IncCartMerge("duplicate")
	}
	if stored != nil {
		if err := cs.Guests.Delete(ctx, gid); err != nil {
			cs.log.Warn("Guest cart delete failed after merge", "error", err)
		}
	}

	v, err := cs.view(dbc, owner)
	if err != nil {
		return nil, err
	}
	return &ConsolidateResult{Cart: v, Applied: applied, Lines: merged}, nil
}

// mergeable drops guest lines whose product no longer exists so the upserts
// never reference a missing row. Hidden products are kept and shown as
// unavailable like any other cart line.
func (cs *cartService) mergeable(dbc dbctx.Context, lines []cart.Line) ([]cart.Line, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := cs.ProductRepo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		if known[l.ProductID] {
			out = append(out, l)
		}
	}
	return out, nil
}
