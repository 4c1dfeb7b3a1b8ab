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

// CorrectionHandler wires correction review and grading HTTP routes.
type CorrectionHandler struct {
	corrections service.CorrectionService
	grading     service.GradingService
	logger      zerolog.Logger
}

// NewCorrectionHandler constructs the handler.
func NewCorrectionHandler(corrections service.CorrectionService, grading service.GradingService, logger zerolog.Logger) *CorrectionHandler {
	return &CorrectionHandler{
		corrections: corrections,
		grading:     grading,
		logger:      logger.With().Str("component", "correction_handler").Logger(),
	}
}

// Register attaches correction endpoints to the router group.
func (h *CorrectionHandler) Register(router fiber.Router) {
	router.Post("", h.gradeManually)
	router.Post("/evaluate", h.evaluate)
	router.Put("/:id", h.review)
}

func (h *CorrectionHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CorrectionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	correction, err := h.corrections.Review(c.Context(), principalFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "correction updated", correction)
}

func (h *CorrectionHandler) gradeManually(c *fiber.Ctx) error {
	var payload dto.ManualCorrectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	correction, err := h.corrections.GradeManually(c.Context(), principalFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "correction created", correction)
}

// evaluate lets a professor (re)trigger AI grading synchronously, typically
// after a grading error. Returns the existing correction when one exists.
func (h *CorrectionHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.SubmissionID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "submission_id is required")
	}

	correction, err := h.grading.Evaluate(c.Context(), payload.SubmissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission evaluated", correction)
}

func (h *CorrectionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCorrectionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "correction not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotExerciseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "exercise belongs to another professor")
	case errors.Is(err, service.ErrAlreadyGraded):
		return utils.SendError(c, fiber.StatusConflict, "submission already has a correction")
	case errors.Is(err, service.ErrMissingReference):
		return utils.SendError(c, fiber.StatusBadRequest, "exercise has no reference correction")
	case errors.Is(err, service.ErrMissingGradingData):
		return utils.SendError(c, fiber.StatusBadRequest, "submission has no gradable text content")
	case errors.Is(err, service.ErrGradingTimeout):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "grading timed out")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusBadGateway, "grading failed")
	}
}
