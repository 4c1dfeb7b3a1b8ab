package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/service"
	"github.com/noah-isme/evalia-api/internal/utils"
)

// UploadHandler wires professor file upload routes.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register attaches upload endpoints to the router group.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
	router.Post("/temp", h.uploadTemp)
}

func (h *UploadHandler) uploadTemp(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	record, err := h.service.UploadTemp(c.Context(), principalFromContext(c), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "temporary file stored", record)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	exerciseID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("exercise_id")), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exercise_id")
	}

	payload := dto.UploadRequest{
		ExerciseID:  uint(exerciseID),
		IsReference: c.FormValue("is_reference") == "true",
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	record, err := h.service.Upload(c.Context(), principalFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded", record)
}

func (h *UploadHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exercise not found")
	case errors.Is(err, service.ErrNotExerciseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "exercise belongs to another professor")
	case errors.Is(err, service.ErrFileMissing):
		return utils.SendError(c, fiber.StatusBadRequest, "no file provided")
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the size limit")
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "unsupported file type")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
