package handlers

import (
	"guardpost/internal/app"
	orderController "guardpost/internal/controllers/orders"
	"guardpost/internal/handlers/middleware"
	"guardpost/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	Handler
	orderController orderController.OrderControllerInterface
}

func NewOrderHandler(app app.App, router fiber.Router) *OrderHandler {
	log := logger.New("handlers").File("order_handler")
	return &OrderHandler{
		orderController: app.Controllers.Order,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *OrderHandler) Register() {
	orders := h.router.Group("/orders", h.middleware.RequireAuth())
	orders.Post("", h.createOrder)
	orders.Get("", h.listOrders)
	orders.Get("/:id", h.getOrder)
	orders.Post("/:id/cancel", h.cancelOrder)

	operator := orders.Group("/", h.middleware.RequireOperator())
	operator.Post("/:id/accept", h.acceptOrder)
}

func (h *OrderHandler) createOrder(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req orderController.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	order, err := h.orderController.CreateOrder(c.Context(), user, &req)
	if err != nil {
		return h.orderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) listOrders(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	orders, err := h.orderController.ListClientOrders(c.Context(), user.ID)
	if err != nil {
		return h.orderError(c, err)
	}

	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) getOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	order, err := h.orderController.GetOrder(c.Context(), orderID)
	if err != nil {
		return h.orderError(c, err)
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) acceptOrder(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	order, err := h.orderController.AcceptOrder(c.Context(), user, orderID)
	if err != nil {
		return h.orderError(c, err)
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) cancelOrder(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	order, err := h.orderController.CancelOrder(c.Context(), user, orderID)
	if err != nil {
		return h.orderError(c, err)
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) orderError(c *fiber.Ctx, err error) error {
	status := statusForError(
		err,
		orderController.ErrValidation,
		orderController.ErrNotFound,
		orderController.ErrConflict,
		orderController.ErrForbidden,
	)
	return errorResponse(c, status, err)
}
