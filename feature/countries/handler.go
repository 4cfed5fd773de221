package countries

import (
	"errors"

	"country-cache/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for the countries feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the countries routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)

	group := app.Group("/countries")
	group.Post("/refresh", h.HandleRefresh)
	// Static routes before the name parameter so "summary" never resolves
	// as a country name.
	group.Get("/summary", h.HandleSummary)
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleGet)
}

// HandleStatus is the liveness probe.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "Server running"})
}

// HandleRefresh triggers one refresh run. External feed failures map to 503
// with a payload naming the failing feed; an overlapping run (when exclusive
// refresh is enabled) maps to 409.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Refresh triggered")

	processed, err := h.service.Refresh(c.Context())
	if err != nil {
		var feedErr *FeedError
		switch {
		case errors.As(err, &feedErr):
			l.Error("External fetch failed", zap.String("feed", feedErr.Feed), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "External data source unavailable",
				"details": feedErr.Detail(),
			})
		case errors.Is(err, ErrRefreshInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Refresh already in progress",
			})
		default:
			l.Error("Refresh failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Refresh failed",
			})
		}
	}

	return c.JSON(fiber.Map{"processed": processed})
}

// HandleSummary returns the cached-countries summary projection.
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		l.Error("Summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}

// HandleList returns all cached countries, optionally filtered by region.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	rows, err := h.service.List(c.Query("region"))
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		l.Error("List failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rows)
}

// HandleGet returns one cached country by case-insensitive name.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	name := c.Params("name")

	country, err := h.service.GetByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Country not found"})
		}
		l := logger.WithRayID(h.service.logger, c)
		l.Error("Country lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(country)
}
