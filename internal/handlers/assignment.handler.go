package handlers

import (
	"context"

	"guardpost/internal/app"
	assignmentController "guardpost/internal/controllers/assignments"
	"guardpost/internal/handlers/middleware"
	"guardpost/internal/logger"
	"guardpost/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AssignmentHandler struct {
	Handler
	assignmentController assignmentController.AssignmentControllerInterface
}

type respondRequest struct {
	Response models.ResponseStatus `json:"response"`
}

func NewAssignmentHandler(app app.App, router fiber.Router) *AssignmentHandler {
	log := logger.New("handlers").File("assignment_handler")
	return &AssignmentHandler{
		assignmentController: app.Controllers.Assignment,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AssignmentHandler) Register() {
	shifts := h.router.Group("/shifts", h.middleware.RequireAuth())
	shifts.Post("/:id/respond", h.respond)
	shifts.Post("/:id/clock-in", h.clockIn)
	shifts.Post("/:id/clock-out", h.clockOut)
	shifts.Post("/:id/overtime/start", h.startOvertime)
	shifts.Post("/:id/overtime/end", h.endOvertime)

	billing := h.router.Group("/billing", h.middleware.RequireAuth(), h.middleware.RequireOperator())
	billing.Get("/facts", h.listBillableFacts)
}

func (h *AssignmentHandler) respond(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	shiftID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift id"})
	}

	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignment, err := h.assignmentController.Respond(c.Context(), user, shiftID, req.Response)
	if err != nil {
		return h.assignmentError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) clockIn(c *fiber.Ctx) error {
	return h.clockAction(c, h.assignmentController.ClockIn)
}

func (h *AssignmentHandler) clockOut(c *fiber.Ctx) error {
	return h.clockAction(c, h.assignmentController.ClockOut)
}

func (h *AssignmentHandler) startOvertime(c *fiber.Ctx) error {
	return h.clockAction(c, h.assignmentController.StartOvertime)
}

func (h *AssignmentHandler) endOvertime(c *fiber.Ctx) error {
	return h.clockAction(c, h.assignmentController.EndOvertime)
}

func (h *AssignmentHandler) listBillableFacts(c *fiber.Ctx) error {
	user := middleware.GetUser(c)

	facts, err := h.assignmentController.ListBillableFacts(c.Context(), user)
	if err != nil {
		return h.assignmentError(c, err)
	}

	return c.JSON(fiber.Map{"facts": facts})
}

type clockActionFn func(ctx context.Context, user *models.User, shiftID uuid.UUID) (*models.Assignment, error)

func (h *AssignmentHandler) clockAction(c *fiber.Ctx, action clockActionFn) error {
	user := middleware.GetUser(c)
	shiftID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift id"})
	}

	assignment, err := action(c.Context(), user, shiftID)
	if err != nil {
		return h.assignmentError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) assignmentError(c *fiber.Ctx, err error) error {
	status := statusForError(
		err,
		assignmentController.ErrValidation,
		assignmentController.ErrNotFound,
		assignmentController.ErrConflict,
		assignmentController.ErrForbidden,
	)
	return errorResponse(c, status, err)
}
