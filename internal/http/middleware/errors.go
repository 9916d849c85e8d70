package middleware

import "errors"

var (
	errMissingToken = errors.New("missing or invalid token")
	errAdminOnly    = errors.New("admin role required")
	errRateLimited  = errors.New("too many requests, slow down")
)
