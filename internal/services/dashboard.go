package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type DashboardStats struct {
	Products       int64            `json:"products"`
	Customers      int64            `json:"customers"`
	Orders         int64            `json:"orders"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	RevenueCents   int64            `json:"revenue_cents"`
	PendingReturns int64            `json:"pending_returns"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	log         *logger.Logger
	productRepo repos.ProductRepo
	userRepo    repos.UserRepo
	orderRepo   repos.OrderRepo
	returnRepo  repos.ReturnRepo
}

func NewDashboardService(log *logger.Logger, productRepo repos.ProductRepo, userRepo repos.UserRepo, orderRepo repos.OrderRepo, returnRepo repos.ReturnRepo) DashboardService {
	return &dashboardService{
		log:         log.With("service", "DashboardService"),
		productRepo: productRepo,
		userRepo:    userRepo,
		orderRepo:   orderRepo,
		returnRepo:  returnRepo,
	}
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	g.Go(func() (err error) {
		out.Products, err = s.productRepo.Count(dbc)
		return wrapStat("products", err)
	})
	g.Go(func() (err error) {
		out.Customers, err = s.userRepo.Count(dbc)
		return wrapStat("customers", err)
	})
	g.Go(func() (err error) {
		out.OrdersByStatus, err = s.orderRepo.CountByStatus(dbc)
		return wrapStat("orders", err)
	})
	g.Go(func() (err error) {
		out.RevenueCents, err = s.orderRepo.RevenueCents(dbc)
		return wrapStat("revenue", err)
	})
	g.Go(func() (err error) {
		out.PendingReturns, err = s.returnRepo.CountOpen(dbc)
		return wrapStat("returns", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for st, n := range out.OrdersByStatus {
		if types.IsOrderStatus(st) {
			out.Orders += n
		}
	}
	return out, nil
}

func wrapStat(name string, err error) error {
	if err != nil {
		return fmt.Errorf("dashboard %s: %w", name, err)
	}
	return nil
}
