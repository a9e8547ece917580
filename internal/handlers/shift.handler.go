package handlers

import (
	"guardpost/internal/app"
	shiftController "guardpost/internal/controllers/shifts"
	"guardpost/internal/handlers/middleware"
	"guardpost/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ShiftHandler struct {
	Handler
	shiftController shiftController.ShiftControllerInterface
}

func NewShiftHandler(app app.App, router fiber.Router) *ShiftHandler {
	log := logger.New("handlers").File("shift_handler")
	return &ShiftHandler{
		shiftController: app.Controllers.Shift,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ShiftHandler) Register() {
	shifts := h.router.Group("/shifts", h.middleware.RequireAuth())
	shifts.Get("/mine", h.listMyShifts)
	shifts.Get("/:id", h.getShift)
	shifts.Get("/order/:orderId", h.listOrderShifts)

	operator := shifts.Group("/", h.middleware.RequireOperator())
	operator.Post("/expand", h.expandOrder)
}

// expandOrder schedules guards onto an order, creating the full shift and
// assignment batch in one request.
func (h *ShiftHandler) expandOrder(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	var req shiftController.ExpandOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.shiftController.ExpandOrder(c.Context(), user, &req)
	if err != nil {
		return h.shiftError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ShiftHandler) getShift(c *fiber.Ctx) error {
	shiftID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift id"})
	}

	shift, err := h.shiftController.GetShift(c.Context(), shiftID)
	if err != nil {
		return h.shiftError(c, err)
	}

	return c.JSON(fiber.Map{"shift": shift})
}

func (h *ShiftHandler) listOrderShifts(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	shifts, err := h.shiftController.ListOrderShifts(c.Context(), orderID)
	if err != nil {
		return h.shiftError(c, err)
	}

	return c.JSON(fiber.Map{"shifts": shifts})
}

func (h *ShiftHandler) listMyShifts(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	shifts, err := h.shiftController.ListGuardShifts(c.Context(), user.ID)
	if err != nil {
		return h.shiftError(c, err)
	}

	return c.JSON(fiber.Map{"shifts": shifts})
}

func (h *ShiftHandler) shiftError(c *fiber.Ctx, err error) error {
	status := statusForError(
		err,
		shiftController.ErrValidation,
		shiftController.ErrNotFound,
		shiftController.ErrConflict,
		shiftController.ErrForbidden,
	)
	return errorResponse(c, status, err)
}
