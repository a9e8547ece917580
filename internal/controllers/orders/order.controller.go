package orderController

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/logger"
	. "guardpost/internal/models"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
	"guardpost/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type OrderController struct {
	orderRepo    repositories.OrderRepository
	transaction  *services.TransactionService
	notification *services.NotificationService
	clock        *scheduling.Clock
	validate     *validator.Validate
	db           database.DB
	Config       config.Config
	log          logger.Logger
}

type CreateOrderRequest struct {
	ServiceType     ServiceType `json:"serviceType"     validate:"required,oneof=static patrol event escort"`
	LocationName    string      `json:"locationName"    validate:"required"`
	LocationAddress string      `json:"locationAddress"`
	LocationPoint   *GeoPoint   `json:"locationPoint,omitempty"`
	GuardsRequired  int         `json:"guardsRequired"  validate:"required,min=1"`
	StartDate       string      `json:"startDate"       validate:"required"`
	EndDate         *string     `json:"endDate,omitempty"`
	DailyStartTime  *string     `json:"dailyStartTime,omitempty"`
	DailyEndTime    *string     `json:"dailyEndTime,omitempty"`
	Images          []string    `json:"images,omitempty"`
}

type OrderControllerInterface interface {
	CreateOrder(ctx context.Context, client *User, request *CreateOrderRequest) (*Order, error)
	AcceptOrder(ctx context.Context, operator *User, orderID uuid.UUID) (*Order, error)
	CancelOrder(ctx context.Context, actor *User, orderID uuid.UUID) (*Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListClientOrders(ctx context.Context, clientID uuid.UUID) ([]Order, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) OrderControllerInterface {
	return &OrderController{
		orderRepo:    repos.Order,
		transaction:  services.Transaction,
		notification: services.Notification,
		clock:        services.Clock,
		validate:     validator.New(),
		db:           db,
		Config:       config,
		log:          logger.New("orderController"),
	}
}

// CreateOrder records a client's service request in pending state. Nothing
// is scheduled until an operator accepts and expands it.
func (c *OrderController) CreateOrder(
	ctx context.Context,
	client *User,
	request *CreateOrderRequest,
) (*Order, error) {
	log := c.log.Function("CreateOrder")

	if err := c.validate.Struct(request); err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	if _, err := scheduling.ParseDate(c.clock, request.StartDate); err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid startDate", "startDate", request.StartDate)
	}
	if request.EndDate != nil && *request.EndDate != "" {
		end, err := scheduling.ParseDate(c.clock, *request.EndDate)
		if err != nil {
			return nil, log.ErrorWithType(ErrValidation, "invalid endDate", "endDate", *request.EndDate)
		}
		start, _ := scheduling.ParseDate(c.clock, request.StartDate)
		if end.Before(start) {
			return nil, log.ErrorWithType(ErrValidation, "endDate is before startDate")
		}
	}
	if (request.DailyStartTime == nil) != (request.DailyEndTime == nil) {
		return nil, log.ErrorWithType(ErrValidation, "daily start and end times must be set together")
	}
	if request.DailyStartTime != nil {
		if _, err := scheduling.ResolveWindow(
			c.clock, request.StartDate, *request.DailyStartTime, *request.DailyEndTime,
		); err != nil {
			return nil, log.ErrorWithType(ErrValidation, "invalid daily time window", "error", err)
		}
	}

	order := &Order{
		ClientID:        client.ID,
		ServiceType:     request.ServiceType,
		LocationName:    request.LocationName,
		LocationAddress: request.LocationAddress,
		GuardsRequired:  request.GuardsRequired,
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		DailyStartTime:  request.DailyStartTime,
		DailyEndTime:    request.DailyEndTime,
		Status:          OrderPending,
	}

	if request.LocationPoint != nil {
		point, err := json.Marshal(request.LocationPoint)
		if err != nil {
			return nil, log.Err("failed to encode location point", err)
		}
		order.LocationPoint = point
	}
	if len(request.Images) > 0 {
		images, err := json.Marshal(request.Images)
		if err != nil {
			return nil, log.Err("failed to encode images", err)
		}
		order.Images = images
	}

	if err := c.orderRepo.Create(ctx, c.db.SQL, order); err != nil {
		return nil, err
	}

	log.Info("Order created", "orderID", order.ID, "clientID", client.ID)
	return order, nil
}

// AcceptOrder moves a pending order into the schedule. If the order's start
// has already elapsed by the time the operator accepts, the order is marked
// missed instead of upcoming.
func (c *OrderController) AcceptOrder(
	ctx context.Context,
	operator *User,
	orderID uuid.UUID,
) (*Order, error) {
	log := c.log.Function("AcceptOrder")

	if !operator.IsOperator() {
		return nil, log.ErrorWithType(ErrForbidden, "only operators may accept orders")
	}

	var order *Order
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		order, err = c.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
		}
		if order.Status != OrderPending {
			return log.ErrorWithType(
				ErrConflict,
				"only pending orders may be accepted",
				"orderID", orderID,
				"status", order.Status,
			)
		}

		start, err := c.orderStartInstant(order)
		if err != nil {
			return log.ErrorWithType(ErrValidation, "invalid order date", "error", err)
		}

		status := OrderUpcoming
		if !c.clock.Now().Before(start) {
			status = OrderMissed
		}

		order.Status = status
		return c.orderRepo.UpdateStatus(ctx, tx, order.ID, status)
	})
	if err != nil {
		return nil, err
	}

	c.notification.PublishLifecycle(events.ORDER_STATUS, map[string]any{
		"orderId": order.ID.String(),
		"status":  string(order.Status),
	})
	if err := c.notification.Notify(
		ctx, nil,
		[]uuid.UUID{order.ClientID},
		NotifyOrderStatus, events.ORDER_STATUS,
		"Order accepted",
		"Your order has been accepted and scheduled.",
		map[string]any{"orderId": order.ID.String(), "status": string(order.Status)},
	); err != nil {
		log.Warn("failed to notify client of order acceptance", "orderID", order.ID, "error", err)
	}

	log.Info("Order accepted", "orderID", order.ID, "status", order.Status)
	return order, nil
}

// CancelOrder cancels a pending order. Orders that already entered the
// schedule cannot be cancelled through this path.
func (c *OrderController) CancelOrder(
	ctx context.Context,
	actor *User,
	orderID uuid.UUID,
) (*Order, error) {
	log := c.log.Function("CancelOrder")

	var order *Order
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		order, err = c.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
		}
		if !actor.IsOperator() && order.ClientID != actor.ID {
			return log.ErrorWithType(ErrForbidden, "order does not belong to actor", "orderID", orderID)
		}
		if order.Status != OrderPending {
			return log.ErrorWithType(
				ErrConflict,
				"only pending orders may be cancelled",
				"orderID", orderID,
				"status", order.Status,
			)
		}

		order.Status = OrderCancelled
		return c.orderRepo.UpdateStatus(ctx, tx, order.ID, OrderCancelled)
	})
	if err != nil {
		return nil, err
	}

	c.notification.PublishLifecycle(events.ORDER_STATUS, map[string]any{
		"orderId": order.ID.String(),
		"status":  string(OrderCancelled),
	})

	log.Info("Order cancelled", "orderID", order.ID)
	return order, nil
}

// GetOrder returns the order with its status reconciled against the clock.
// The write happens only when the derived status differs from the stored
// one.
func (c *OrderController) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	log := c.log.Function("GetOrder")

	order, err := c.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, log.ErrorWithType(ErrNotFound, "order not found", "orderID", orderID)
	}

	if err := c.reconcile(ctx, order); err != nil {
		log.Warn("failed to reconcile order status", "orderID", order.ID, "error", err)
	}

	return order, nil
}

func (c *OrderController) ListClientOrders(ctx context.Context, clientID uuid.UUID) ([]Order, error) {
	log := c.log.Function("ListClientOrders")

	orders, err := c.orderRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := c.reconcile(ctx, &orders[i]); err != nil {
			log.Warn("failed to reconcile order status", "orderID", orders[i].ID, "error", err)
		}
	}

	return orders, nil
}

// reconcile recomputes a time-derived order status and persists it only on
// change. Pending and terminal orders are never touched here.
func (c *OrderController) reconcile(ctx context.Context, order *Order) error {
	if !order.Status.TimeDerived() {
		return nil
	}

	derived, err := scheduling.DeriveOrderStatus(c.clock, c.clock.Now(), order.StartDate, order.EndDate)
	if err != nil {
		return err
	}
	if derived == order.Status {
		return nil
	}

	if err := c.orderRepo.UpdateStatus(ctx, c.db.SQL, order.ID, derived); err != nil {
		return err
	}
	order.Status = derived

	c.notification.PublishLifecycle(events.ORDER_STATUS, map[string]any{
		"orderId": order.ID.String(),
		"status":  string(derived),
	})
	return nil
}

// orderStartInstant resolves the moment the order's service begins: the
// daily window start on the first day when a window is set, otherwise the
// start of the first day.
func (c *OrderController) orderStartInstant(order *Order) (t time.Time, err error) {
	if order.DailyStartTime != nil && order.DailyEndTime != nil {
		window, err := scheduling.ResolveWindow(
			c.clock, order.StartDate, *order.DailyStartTime, *order.DailyEndTime,
		)
		if err != nil {
			return t, err
		}
		return window.Start, nil
	}
	return scheduling.StartOfDay(c.clock, order.StartDate)
}
