package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
)

func (e *env) authService() AuthService {
	return NewAuthService(e.db, e.log, e.users, repos.NewUserTokenRepo(e.db, e.log), nil, "test-secret", 0, 0)
}

func TestRegisterLoginAndResolveToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.authService()

	u, err := svc.Register(ctx, RegisterInput{Email: " Ada@Example.com ", Password: "correct horse", FirstName: "Ada"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.Equal(t, types.RoleCustomer, u.Role)

	_, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct horse"})
	requireCode(t, err, "email_taken")

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	requireCode(t, err, "invalid_credentials")

	pair, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Equal(t, int(svc.AccessTTL().Seconds()), pair.ExpiresIn)

	authed, err := svc.SetContextFromToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(authed)
	require.NotNil(t, rd)
	require.Equal(t, u.ID, rd.UserID)
	require.Equal(t, types.RoleCustomer, rd.Role)

	require.NoError(t, svc.Logout(authed))
	_, err = svc.SetContextFromToken(ctx, pair.AccessToken)
	requireCode(t, err, "unauthenticated")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.authService().Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "short"})
	requireCode(t, err, "weak_password")
	_, err = e.authService().Register(context.Background(), RegisterInput{Email: "not an email", Password: "long enough"})
	requireCode(t, err, "invalid_email")
}

func TestRefreshTokensAreSingleUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.authService()
	_, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	requireCode(t, err, "unauthenticated")
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.authService()
	u, err := svc.Register(ctx, RegisterInput{Email: "ops@example.com", Password: "correct horse"})
	require.NoError(t, err)

	admin, err := svc.EnsureAdmin(ctx, RegisterInput{Email: "OPS@example.com", Password: "ignored!!"})
	require.NoError(t, err)
	require.Equal(t, u.ID, admin.ID)
	require.True(t, admin.IsAdmin())

	created, err := svc.EnsureAdmin(ctx, RegisterInput{Email: "new-admin@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.True(t, created.IsAdmin())
}
