package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/service"
	"github.com/noah-isme/evalia-api/internal/utils"
)

// DashboardHandler wires the student dashboard route.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.overview)
}

func (h *DashboardHandler) overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.Context(), principalFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("dashboard overview")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", overview)
}
