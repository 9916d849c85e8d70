package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

const minPasswordLength = 8

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// EnsureAdmin creates the user if needed and grants the admin role.
	EnsureAdmin(ctx context.Context, in RegisterInput) (*types.User, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatars       AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatars AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatars:       avatars,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apierr.BadRequest("invalid_email", "email required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apierr.BadRequest("invalid_email", "email is not valid")
	}
	return email, nil
}

func (as *authService) validateRegistration(in RegisterInput) (RegisterInput, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return in, err
	}
	in.Email = email
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if len(in.Password) < minPasswordLength {
		return in, apierr.BadRequest("weak_password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return in, nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in, err := as.validateRegistration(in)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalErr("hash password", err)
	}
	user := &types.User{
		ID:        uuid.New(),
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      types.RoleCustomer,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "an account with this email already exists")
		}
		if err := as.userRepo.Create(dbc, user); err != nil {
			if isDuplicate(err) {
				return apierr.Conflict("email_taken", "an account with this email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if as.avatars != nil {
		if err := as.avatars.CreateInitialsAvatar(ctx, user); err != nil {
			as.log.Warn("Initials avatar failed (ignored)", "user_id", user.ID, "error", err)
		}
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.BadRequest("invalid_request", "email and password required")
	}
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.Password == "" {
		return nil, apierr.New(401, "invalid_credentials", errors.New("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.New(401, "invalid_credentials", errors.New("invalid email or password"))
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userTokenRepo.DeleteExpired(dbc, time.Now().UTC()); err != nil {
			as.log.Warn("Expired token cleanup failed", "error", err)
		}
		p, err := as.issue(dbc, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.BadRequest("invalid_request", "refresh_token required")
	}
	var pair *TokenPair
	expired := false
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if existing == nil {
			return apierr.Unauthenticated("refresh token not recognised")
		}
		// Refresh tokens are single use.
		if err := as.userTokenRepo.DeleteByID(dbc, existing.ID); err != nil {
			return fmt.Errorf("delete old token: %w", err)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			expired = true
			return nil
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return apierr.Unauthenticated("user no longer exists")
		}
		p, err := as.issue(dbc, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apierr.Unauthenticated("refresh token expired")
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthenticated("no session")
	}
	if err := as.userTokenRepo.DeleteByAccessToken(dbctx.Context{Ctx: ctx}, rd.TokenString); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (as *authService) EnsureAdmin(ctx context.Context, in RegisterInput) (*types.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	existing, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if existing == nil {
		if existing, err = as.Register(ctx, in); err != nil {
			return nil, err
		}
	}
	if err := as.userRepo.UpdateRole(dbctx.Context{Ctx: ctx}, existing.ID, types.RoleAdmin); err != nil {
		return nil, fmt.Errorf("grant admin: %w", err)
	}
	existing.Role = types.RoleAdmin
	as.log.Info("Admin role granted", "user_id", existing.ID)
	return existing, nil
}

func (as *authService) issue(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, internalErr("sign access token", err)
	}
	tok := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().UTC().Add(as.refreshTTL),
	}
	if err := as.userTokenRepo.Create(dbc, tok); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    int(as.accessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the JWT, checks the session still exists and
// loads the caller's current role into the request data.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthenticated("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.New(401, "unauthenticated", fmt.Errorf("invalid token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthenticated("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthenticated("invalid token subject")
	}
	dbc := dbctx.Context{Ctx: ctx}
	session, err := as.userTokenRepo.GetByAccessToken(dbc, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return ctx, apierr.Unauthenticated("session ended")
	}
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthenticated("user no longer exists")
	}

	rd := ctxutil.GetRequestData(ctx)
	next := &ctxutil.RequestData{}
	if rd != nil {
		*next = *rd
	}
	next.TokenString = tokenString
	next.UserID = user.ID
	next.SessionID = session.ID
	next.Role = user.Role
	return ctxutil.WithRequestData(ctx, next), nil
}
