package commerce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
)

func TestCartItemRepoAddQuantityUpserts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCartItemRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "cart@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "tee", 1500, 10)
	v := testutil.SeedVariant(t, ctx, tx, p.ID, "L", 0, 5)

	if err := repo.AddQuantity(dbc, u.ID, p.ID, uuid.Nil, 1); err != nil {
		t.Fatalf("AddQuantity: %v", err)
	}
	if err := repo.AddQuantity(dbc, u.ID, p.ID, uuid.Nil, 2); err != nil {
		t.Fatalf("AddQuantity again: %v", err)
	}
	if err := repo.AddQuantity(dbc, u.ID, p.ID, v.ID, 1); err != nil {
		t.Fatalf("AddQuantity variant: %v", err)
	}

	items, err := repo.ListByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", len(items))
	}
	plain, err := repo.Get(dbc, u.ID, p.ID, uuid.Nil)
	if err != nil || plain == nil || plain.Quantity != 3 {
		t.Fatalf("Get plain line: %+v err=%v", plain, err)
	}

	if err := repo.SetQuantity(dbc, u.ID, p.ID, v.ID, 7); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	withVariant, err := repo.Get(dbc, u.ID, p.ID, v.ID)
	if err != nil || withVariant.Quantity != 7 {
		t.Fatalf("Get variant line: %+v err=%v", withVariant, err)
	}

	if err := repo.ClearByUser(dbc, u.ID); err != nil {
		t.Fatalf("ClearByUser: %v", err)
	}
	items, _ = repo.ListByUser(dbc, u.ID)
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d", len(items))
	}
}

func TestCartMergeRepoClaimOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCartMergeRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "merge@example.com")

	ok, err := repo.Claim(dbc, u.ID, "guest-1", "rev-1", 2)
	if err != nil || !ok {
		t.Fatalf("first Claim: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Claim(dbc, u.ID, "guest-1", "rev-1", 2)
	if err != nil || ok {
		t.Fatalf("second Claim must be rejected: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Claim(dbc, u.ID, "guest-1", "rev-2", 1)
	if err != nil || !ok {
		t.Fatalf("new revision Claim: ok=%v err=%v", ok, err)
	}
}

func TestReviewRepoUniquePerUserProduct(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewReviewRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "rev@example.com")
	u2 := testutil.SeedUser(t, ctx, tx, "rev2@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "lamp", 4000, 1)

	if err := repo.Create(dbc, &types.Review{UserID: u.ID, ProductID: p.ID, Rating: 4}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(dbc, &types.Review{UserID: u2.ID, ProductID: p.ID, Rating: 5}); err != nil {
		t.Fatalf("Create second user: %v", err)
	}

	sp := tx.SavePoint("dup")
	if sp.Error != nil {
		t.Fatalf("SavePoint: %v", sp.Error)
	}
	err := repo.Create(dbc, &types.Review{UserID: u.ID, ProductID: p.ID, Rating: 1})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate Create: want ErrDuplicatedKey got %v", err)
	}
	tx.RollbackTo("dup")

	sum, err := repo.Summary(dbc, p.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Count != 2 || sum.Average != 4.5 {
		t.Fatalf("Summary: %+v", sum)
	}

	empty, err := repo.Summary(dbc, uuid.New())
	if err != nil || empty.Count != 0 {
		t.Fatalf("Summary empty: %+v err=%v", empty, err)
	}
}

func TestOrderRepoPurchaseAndStats(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "ord@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "kettle", 3000, 5)
	other := testutil.SeedProduct(t, ctx, tx, "toaster", 2000, 5)

	pending := testutil.SeedOrder(t, ctx, tx, u.ID, types.OrderStatusPending, other)
	delivered := testutil.SeedOrder(t, ctx, tx, u.ID, types.OrderStatusDelivered, p)

	bought, err := repo.HasPurchased(dbc, u.ID, p.ID)
	if err != nil || !bought {
		t.Fatalf("HasPurchased delivered: %v err=%v", bought, err)
	}
	bought, err = repo.HasPurchased(dbc, u.ID, other.ID)
	if err != nil || bought {
		t.Fatalf("HasPurchased pending must be false: %v err=%v", bought, err)
	}

	moved, err := repo.TransitionStatus(dbc, pending.ID, []string{types.OrderStatusPending}, types.OrderStatusPaid, nil)
	if err != nil || !moved {
		t.Fatalf("TransitionStatus: moved=%v err=%v", moved, err)
	}
	moved, err = repo.TransitionStatus(dbc, pending.ID, []string{types.OrderStatusPending}, types.OrderStatusPaid, nil)
	if err != nil || moved {
		t.Fatalf("TransitionStatus replay must not move: moved=%v err=%v", moved, err)
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.OrderStatusPaid] != 1 || counts[types.OrderStatusDelivered] != 1 {
		t.Fatalf("CountByStatus: %+v", counts)
	}
	revenue, err := repo.RevenueCents(dbc)
	if err != nil || revenue != 5000 {
		t.Fatalf("RevenueCents: %d err=%v", revenue, err)
	}

	got, err := repo.GetForUser(dbc, u.ID, delivered.ID)
	if err != nil || got == nil || len(got.Items) != 1 {
		t.Fatalf("GetForUser: %+v err=%v", got, err)
	}
	if none, err := repo.GetForUser(dbc, uuid.New(), delivered.ID); err != nil || none != nil {
		t.Fatalf("GetForUser foreign: %+v err=%v", none, err)
	}
}

func TestOrderRepoMarkConfirmedOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "confirm@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "kettle", 3000, 5)
	o := testutil.SeedOrder(t, ctx, tx, u.ID, types.OrderStatusPaid, p)

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stamped, err := repo.MarkConfirmed(dbc, o.ID, first)
	if err != nil || !stamped {
		t.Fatalf("MarkConfirmed: stamped=%v err=%v", stamped, err)
	}
	stamped, err = repo.MarkConfirmed(dbc, o.ID, first.Add(time.Hour))
	if err != nil || stamped {
		t.Fatalf("MarkConfirmed replay must not stamp: stamped=%v err=%v", stamped, err)
	}
	got, err := repo.GetByID(dbc, o.ID)
	if err != nil || got.ConfirmationSentAt == nil || !got.ConfirmationSentAt.Equal(first) {
		t.Fatalf("ConfirmationSentAt: %+v err=%v", got, err)
	}
}

func TestWishlistRepoIdempotentAdd(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWishlistRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "wish@example.com")
	p := testutil.SeedProduct(t, ctx, tx, "vase", 2500, 2)

	added, err := repo.Add(dbc, u.ID, p.ID)
	if err != nil || !added {
		t.Fatalf("Add: %v err=%v", added, err)
	}
	added, err = repo.Add(dbc, u.ID, p.ID)
	if err != nil || added {
		t.Fatalf("Add again: %v err=%v", added, err)
	}
	items, err := repo.ListByUser(dbc, u.ID)
	if err != nil || len(items) != 1 || items[0].Product == nil || items[0].Product.ID != p.ID {
		t.Fatalf("ListByUser: %+v err=%v", items, err)
	}
	removed, err := repo.Remove(dbc, u.ID, p.ID)
	if err != nil || !removed {
		t.Fatalf("Remove: %v err=%v", removed, err)
	}
}
