package auth

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "tok@example.com")
	live := &types.UserToken{UserID: u.ID, AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)}
	stale := &types.UserToken{UserID: u.ID, AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(-time.Hour)}
	for _, tok := range []*types.UserToken{live, stale} {
		if err := repo.Create(dbc, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.GetByRefreshToken(dbc, "r1")
	if err != nil || got == nil || got.ID != live.ID {
		t.Fatalf("GetByRefreshToken: got=%+v err=%v", got, err)
	}

	n, err := repo.DeleteExpired(dbc, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}

	if err := repo.DeleteByAccessToken(dbc, "a1"); err != nil {
		t.Fatalf("DeleteByAccessToken: %v", err)
	}
	got, err = repo.GetByAccessToken(dbc, "a1")
	if err != nil || got != nil {
		t.Fatalf("GetByAccessToken after delete: got=%+v err=%v", got, err)
	}
}
