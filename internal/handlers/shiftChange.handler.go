package handlers

import (
	"guardpost/internal/app"
	shiftChangeController "guardpost/internal/controllers/shiftchanges"
	"guardpost/internal/handlers/middleware"
	"guardpost/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ShiftChangeHandler struct {
	Handler
	shiftChangeController shiftChangeController.ShiftChangeControllerInterface
}

func NewShiftChangeHandler(app app.App, router fiber.Router) *ShiftChangeHandler {
	log := logger.New("handlers").File("shift_change_handler")
	return &ShiftChangeHandler{
		shiftChangeController: app.Controllers.ShiftChange,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ShiftChangeHandler) Register() {
	changes := h.router.Group("/shift-changes", h.middleware.RequireAuth())
	changes.Post("", h.submit)

	operator := changes.Group("/", h.middleware.RequireOperator())
	operator.Get("/pending", h.listPending)
	operator.Post("/:id/resolve", h.resolve)
}

func (h *ShiftChangeHandler) submit(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req shiftChangeController.SubmitChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	changeRequest, err := h.shiftChangeController.Submit(c.Context(), user, &req)
	if err != nil {
		return h.changeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"changeRequest": changeRequest})
}

func (h *ShiftChangeHandler) listPending(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	requests, err := h.shiftChangeController.ListPending(c.Context(), user)
	if err != nil {
		return h.changeError(c, err)
	}

	return c.JSON(fiber.Map{"changeRequests": requests})
}

func (h *ShiftChangeHandler) resolve(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req shiftChangeController.ResolveChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	changeRequest, err := h.shiftChangeController.Resolve(c.Context(), user, requestID, &req)
	if err != nil {
		return h.changeError(c, err)
	}

	return c.JSON(fiber.Map{"changeRequest": changeRequest})
}

func (h *ShiftChangeHandler) changeError(c *fiber.Ctx, err error) error {
	status := statusForError(
		err,
		shiftChangeController.ErrValidation,
		shiftChangeController.ErrNotFound,
		shiftChangeController.ErrConflict,
		shiftChangeController.ErrForbidden,
	)
	return errorResponse(c, status, err)
}
