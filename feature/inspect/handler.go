package inspect

import (
	"livesync/core/errors"
	"livesync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for group inspection.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inspection routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	values := app.Group("/values")
	values.Get("/", h.HandleValues)
	values.Get("/:name", h.HandleValue)
}

// HandleHealth reports the group state. The status is 503 until the group
// loads.
// @Summary Group health
// @Description Reports the group and per-item state. The status is 503 until every item has loaded.
// @Tags inspect
// @Produce json
// @Success 200 {object} Health "Loaded"
// @Failure 503 {object} Health "Not loaded"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	health := h.service.Health()
	status := fiber.StatusOK
	if !health.Loaded {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(health)
}

// HandleValues returns every item value keyed by item name.
// @Summary All item values
// @Description Returns every item value keyed by item name, in group order.
// @Tags inspect
// @Produce json
// @Success 200 {object} map[string]interface{} "Values by item name"
// @Failure 500 {object} map[string]string "Encoding failure"
// @Router /values [get]
func (h *Handler) HandleValues(c *fiber.Ctx) error {
	data, err := h.service.Values().MarshalJSON()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to encode values", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// HandleValue returns one item and its value.
// @Summary One item value
// @Description Returns one item, its state and its value.
// @Tags inspect
// @Produce json
// @Param name path string true "Item name"
// @Success 200 {object} ItemValue
// @Failure 404 {object} map[string]string "Unknown item"
// @Router /values/{name} [get]
func (h *Handler) HandleValue(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.service.logger, c)

	v, err := h.service.Value(name)
	if errors.Is(err, ErrUnknownItem) {
		l.Debug("Unknown item requested", zap.String("item", name))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(v)
}
