package repositories

import (
	"context"
	"time"

	"guardpost/internal/database"
	"guardpost/internal/logger"
	. "guardpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ORDER_CACHE_EXPIRY = 10 * time.Minute
	ORDER_CACHE_PREFIX = "order:"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Order, error)
	ListByStatus(ctx context.Context, statuses []OrderStatus) ([]Order, error)
	ListSweepable(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, tx *gorm.DB, order *Order) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status OrderStatus) error
}

type orderRepository struct {
	db  database.DB
	log logger.Logger
}

func NewOrderRepository(db database.DB) OrderRepository {
	return &orderRepository{
		db:  db,
		log: logger.New("orderRepository"),
	}
}

func (r *orderRepository) Create(ctx context.Context, tx *gorm.DB, order *Order) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(order).Error; err != nil {
		return log.Err("failed to create order", err, "clientID", order.ClientID)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	log := r.log.Function("GetByID")

	var order Order
	cacheKey := ORDER_CACHE_PREFIX + id.String()
	if found, err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).WithContext(ctx).Get(&order); err == nil && found {
		return &order, nil
	}

	if err := r.db.SQLWithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get order", err, "orderID", id)
	}

	if err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).
		WithStruct(&order).
		WithTTL(ORDER_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache order", "orderID", id, "error", err)
	}

	return &order, nil
}

// GetByIDForUpdate locks the order row for the duration of the surrounding
// transaction, serializing concurrent status writes on the same order.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Order, error) {
	log := r.log.Function("GetByIDForUpdate")

	var order Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get order for update", err, "orderID", id)
	}

	return &order, nil
}

func (r *orderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Order, error) {
	log := r.log.Function("ListByClient")

	var orders []Order
	err := r.db.SQLWithContext(ctx).
		Where("client_id = ?", clientID).
		Order("start_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, log.Err("failed to list orders by client", err, "clientID", clientID)
	}

	return orders, nil
}

func (r *orderRepository) ListByStatus(ctx context.Context, statuses []OrderStatus) ([]Order, error) {
	log := r.log.Function("ListByStatus")

	var orders []Order
	err := r.db.SQLWithContext(ctx).
		Where("status IN ?", statuses).
		Order("start_date").
		Find(&orders).Error
	if err != nil {
		return nil, log.Err("failed to list orders by status", err, "statuses", statuses)
	}

	return orders, nil
}

// ListSweepable returns every order whose status the daily sweep may
// recompute: past the operator accept, not terminal, and not missed (a
// late accept stays missed).
func (r *orderRepository) ListSweepable(ctx context.Context) ([]Order, error) {
	log := r.log.Function("ListSweepable")

	var orders []Order
	err := r.db.SQLWithContext(ctx).
		Where("status IN ?", []OrderStatus{OrderUpcoming, OrderOngoing}).
		Find(&orders).Error
	if err != nil {
		return nil, log.Err("failed to list sweepable orders", err)
	}

	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, tx *gorm.DB, order *Order) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(order).Error; err != nil {
		return log.Err("failed to update order", err, "orderID", order.ID)
	}

	r.invalidate(ctx, order.ID)
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status OrderStatus) error {
	log := r.log.Function("UpdateStatus")

	err := tx.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return log.Err("failed to update order status", err, "orderID", id, "status", status)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *orderRepository) invalidate(ctx context.Context, id uuid.UUID) {
	cacheKey := ORDER_CACHE_PREFIX + id.String()
	if err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).WithContext(ctx).Delete(); err != nil {
		r.log.Warn("failed to invalidate order cache", "orderID", id, "error", err)
	}
}
