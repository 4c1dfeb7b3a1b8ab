package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/service"
	"github.com/noah-isme/evalia-api/internal/utils"
)

// ExerciseHandler wires exercise HTTP routes.
type ExerciseHandler struct {
	service service.ExerciseService
	logger  zerolog.Logger
}

// NewExerciseHandler constructs the handler.
func NewExerciseHandler(service service.ExerciseService, logger zerolog.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		service: service,
		logger:  logger.With().Str("component", "exercise_handler").Logger(),
	}
}

// Register attaches exercise endpoints to the router group.
func (h *ExerciseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ExerciseHandler) list(c *fiber.Ctx) error {
	exercises, err := h.service.List(c.Context(), principalFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exercises retrieved", exercises)
}

func (h *ExerciseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	exercise, err := h.service.Get(c.Context(), principalFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exercise retrieved", exercise)
}

func (h *ExerciseHandler) create(c *fiber.Ctx) error {
	var payload dto.ExerciseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exercise, err := h.service.Create(c.Context(), principalFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exercise created", exercise)
}

func (h *ExerciseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExerciseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exercise, err := h.service.Update(c.Context(), principalFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exercise updated", exercise)
}

func (h *ExerciseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), principalFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exercise deleted", nil)
}

func (h *ExerciseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exercise not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "course not found")
	case errors.Is(err, service.ErrNotExerciseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "exercise belongs to another professor")
	case errors.Is(err, service.ErrNotProfessor):
		return utils.SendError(c, fiber.StatusForbidden, "only professors can author exercises")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
