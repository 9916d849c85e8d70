package commerce

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/platform/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type OrderFilter struct {
	UserID *uuid.UUID
	Status string
	Limit  int
	Offset int
}

type OrderRepo interface {
	Create(dbc dbctx.Context, o *types.Order) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Order, error)
	GetByPaymentIntent(dbc dbctx.Context, paymentIntentID string) (*types.Order, error)
	List(dbc dbctx.Context, f OrderFilter) ([]*types.Order, int64, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// TransitionStatus moves the order only if it is still in one of from.
	TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []string, to string, extra map[string]interface{}) (bool, error)
	// MarkConfirmed stamps confirmation_sent_at once and reports whether this
	// call did it.
	MarkConfirmed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
	HasPurchased(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
	RevenueCents(dbc dbctx.Context) (int64, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (r *orderRepo) Create(dbc dbctx.Context, o *types.Order) error {
	return dbc.DB(r.db).Create(o).Error
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *orderRepo) findOne(q *gorm.DB) (*types.Order, error) {
	var o types.Order
	res := withItems(q).Limit(1).Find(&o)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	return r.findOne(dbc.DB(r.db).Where("id = ?", id))
}

func (r *orderRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Order, error) {
	return r.findOne(dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID))
}

func (r *orderRepo) GetByPaymentIntent(dbc dbctx.Context, paymentIntentID string) (*types.Order, error) {
	if paymentIntentID == "" {
		return nil, nil
	}
	return r.findOne(dbc.DB(r.db).Where("payment_intent_id = ?", paymentIntentID))
}

func (r *orderRepo) List(dbc dbctx.Context, f OrderFilter) ([]*types.Order, int64, error) {
	q := dbc.DB(r.db).Model(&types.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("created_at DESC").Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	out := []*types.Order{}
	if err := withItems(q).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *orderRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *orderRepo) TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []string, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := dbc.DB(r.db).Model(&types.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) MarkConfirmed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Order{}).
		Where("id = ? AND confirmation_sent_at IS NULL", id).
		Update("confirmation_sent_at", at)
	return res.RowsAffected > 0, res.Error
}

var purchasedStatuses = []string{
	types.OrderStatusPaid,
	types.OrderStatusProcessing,
	types.OrderStatusShipped,
	types.OrderStatusDelivered,
}

func (r *orderRepo) HasPurchased(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.OrderItem{}).
		Joins(`JOIN customer_order ON customer_order.id = order_item.order_id`).
		Where("customer_order.user_id = ? AND order_item.product_id = ? AND customer_order.status IN ?", userID, productID, purchasedStatuses).
		Count(&n).Error
	return n > 0, err
}

func (r *orderRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	if err := dbc.DB(r.db).Model(&types.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *orderRepo) RevenueCents(dbc dbctx.Context) (int64, error) {
	var total int64
	err := dbc.DB(r.db).Model(&types.Order{}).
		Where("status IN ?", purchasedStatuses).
		Select("COALESCE(SUM(total_cents), 0)").
		Scan(&total).Error
	return total, err
}
