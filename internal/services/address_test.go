package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/storefront-backend/internal/domain"
)

func validAddress(name string) AddressInput {
	return AddressInput{FullName: name, Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "us"}
}

func defaults(list []*types.Address) int {
	n := 0
	for _, a := range list {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestAddressFirstIsDefault(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, context.Background(), e.db, "home@example.com")
	svc := NewAddressService(e.db, e.log, e.addrs)
	uctx := userCtx(u)

	first, err := svc.Create(uctx, validAddress("Home"))
	require.NoError(t, err)
	require.True(t, first.IsDefault)
	require.Equal(t, "US", first.Country)

	second, err := svc.Create(uctx, validAddress("Work"))
	require.NoError(t, err)
	require.False(t, second.IsDefault)

	in := validAddress("Cabin")
	in.IsDefault = true
	third, err := svc.Create(uctx, in)
	require.NoError(t, err)
	require.True(t, third.IsDefault)

	list, err := svc.List(uctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, 1, defaults(list))
}

func TestAddressSetDefaultAndDeletePromotes(t *testing.T) {
	e := newEnv(t)
	u := testutil.SeedUser(t, context.Background(), e.db, "home@example.com")
	svc := NewAddressService(e.db, e.log, e.addrs)
	uctx := userCtx(u)

	home, err := svc.Create(uctx, validAddress("Home"))
	require.NoError(t, err)
	work, err := svc.Create(uctx, validAddress("Work"))
	require.NoError(t, err)

	_, err = svc.SetDefault(uctx, work.ID)
	require.NoError(t, err)
	list, err := svc.List(uctx)
	require.NoError(t, err)
	require.Equal(t, 1, defaults(list))

	require.NoError(t, svc.Delete(uctx, work.ID))
	list, err = svc.List(uctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, home.ID, list[0].ID)
	require.True(t, list[0].IsDefault)
}

func TestAddressScopedToOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, ctx, e.db, "owner@example.com")
	other := testutil.SeedUser(t, ctx, e.db, "other@example.com")
	svc := NewAddressService(e.db, e.log, e.addrs)

	a, err := svc.Create(userCtx(owner), validAddress("Home"))
	require.NoError(t, err)

	_, err = svc.Update(userCtx(other), a.ID, validAddress("Mine now"))
	requireCode(t, err, "not_found")
	requireCode(t, svc.Delete(userCtx(other), a.ID), "not_found")

	bad := validAddress("Home")
	bad.Country = "USA"
	_, err = svc.Create(userCtx(owner), bad)
	requireCode(t, err, "invalid_address")
}
