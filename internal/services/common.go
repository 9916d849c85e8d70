package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
)

const (
	defaultPageLimit = 24
	maxPageLimit     = 100
)

// Page is the paging window of a list request. Page is 1-based.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

func (p Page) offset() int {
	p = p.normalize()
	return (p.Page - 1) * p.Limit
}

// requireUser returns the signed-in user id from the request data.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthenticated("sign in required")
	}
	return rd.UserID, nil
}

// requireAdmin checks the role the auth middleware resolved for the token.
func requireAdmin(ctx context.Context) (uuid.UUID, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd.Role != types.RoleAdmin {
		return uuid.Nil, apierr.Forbidden("admin role required")
	}
	return userID, nil
}

func guestID(ctx context.Context) string {
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		return rd.GuestID
	}
	return ""
}

// inTx runs fn inside a transaction unless dbc already carries one.
func inTx(db *gorm.DB, dbc dbctx.Context, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return fn(dbc.WithTx(tx))
	})
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugValid   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lowercases s and collapses every run of non-alphanumerics to "-".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// uniqueSlug derives a slug from want (or name when want is empty) and
// appends -2, -3, ... until exists reports it free. An explicit slug that
// is taken is a conflict rather than silently renamed.
func uniqueSlug(want, name string, exists func(string) (bool, error)) (string, error) {
	explicit := strings.TrimSpace(want) != ""
	base := Slugify(want)
	if !explicit {
		base = Slugify(name)
	}
	if explicit && !slugValid.MatchString(base) {
		return "", apierr.BadRequest("invalid_slug", "slug must contain letters or digits")
	}
	if base == "" {
		base = "item"
	}
	for i := 1; i <= 50; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if explicit {
			return "", apierr.Conflict("slug_taken", "slug already in use")
		}
	}
	return "", apierr.Conflict("slug_taken", "could not find a free slug")
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFoundIf(missing bool, what string) error {
	if missing {
		return apierr.NotFound(what)
	}
	return nil
}

func internalErr(msg string, err error) error {
	return apierr.New(http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", msg, err))
}
