package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
)

func TestHeroSlideRepoReorder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHeroSlideRepo(db, testutil.Logger(t))

	a := &types.HeroSlide{Title: "a", SortOrder: 0, IsActive: true}
	b := &types.HeroSlide{Title: "b", SortOrder: 1, IsActive: true}
	c := &types.HeroSlide{Title: "c", SortOrder: 2, IsActive: false}
	for _, s := range []*types.HeroSlide{a, b, c} {
		if err := repo.Create(dbc, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.Reorder(dbc, []uuid.UUID{c.ID, b.ID, a.ID}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	all, err := repo.List(dbc, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != c.ID || all[2].ID != a.ID {
		t.Fatalf("List after reorder: %+v", all)
	}
	active, err := repo.List(dbc, true)
	if err != nil || len(active) != 2 || active[0].ID != b.ID {
		t.Fatalf("List active: %+v err=%v", active, err)
	}

	max, err := repo.MaxSortOrder(dbc)
	if err != nil || max != 2 {
		t.Fatalf("MaxSortOrder: %d err=%v", max, err)
	}
}

func TestSettingRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSettingRepo(db, testutil.Logger(t))

	if got, err := repo.Get(dbc, types.SettingTax); err != nil || got != nil {
		t.Fatalf("Get missing: %+v err=%v", got, err)
	}
	if err := repo.Upsert(dbc, types.SettingTax, datatypes.JSON(`{"enabled":true,"rate_bps":500}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, types.SettingTax, datatypes.JSON(`{"enabled":false,"rate_bps":0}`)); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}
	got, err := repo.Get(dbc, types.SettingTax)
	if err != nil || got == nil {
		t.Fatalf("Get: %+v err=%v", got, err)
	}
	if string(got.Value) != `{"enabled":false,"rate_bps":0}` {
		t.Fatalf("Get value: %s", got.Value)
	}
}
