package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
)

func TestValidLink(t *testing.T) {
	for link, ok := range map[string]bool{
		"":                       true,
		"/collections/sale":      true,
		"https://example.com/x":  true,
		"http://example.com":     true,
		"//evil.example.com":     false,
		"javascript:alert(1)":    false,
		"ftp://example.com/file": false,
		"https://":               false,
	} {
		require.Equal(t, ok, validLink(link), link)
	}
}

func TestHeroSlidesOrderingAndCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testutil.SeedAdmin(t, ctx, e.db, "admin@example.com")
	svc := NewContentService(e.db, e.log, e.slides, nil, e.cache, nil)
	actx := userCtx(admin)

	a, err := svc.CreateHeroSlide(actx, HeroSlideInput{Title: "Spring", LinkURL: "/spring"})
	require.NoError(t, err)
	b, err := svc.CreateHeroSlide(actx, HeroSlideInput{Title: "Summer"})
	require.NoError(t, err)
	require.Equal(t, a.SortOrder+1, b.SortOrder)

	_, err = svc.CreateHeroSlide(actx, HeroSlideInput{Title: "Bad", LinkURL: "javascript:x"})
	requireCode(t, err, "invalid_request")

	public, err := svc.HeroSlides(ctx)
	require.NoError(t, err)
	require.Len(t, public, 2)
	require.Equal(t, a.ID, public[0].ID)

	hidden := false
	_, err = svc.UpdateHeroSlide(actx, a.ID, HeroSlidePatch{IsActive: &hidden})
	require.NoError(t, err)
	public, err = svc.HeroSlides(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1, "update drops the cached list")

	_, err = svc.ReorderHeroSlides(actx, []uuid.UUID{b.ID})
	requireCode(t, err, "invalid_request")
	all, err := svc.ReorderHeroSlides(actx, []uuid.UUID{b.ID, a.ID})
	require.NoError(t, err)
	require.Equal(t, b.ID, all[0].ID)

	require.NoError(t, svc.DeleteHeroSlide(actx, a.ID))
	requireCode(t, svc.DeleteHeroSlide(actx, a.ID), "not_found")
	_, err = svc.CreateHeroSlide(ctx, HeroSlideInput{Title: "Anon"})
	requireCode(t, err, "unauthenticated")
}
