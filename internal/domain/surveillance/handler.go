package surveillance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP handlers for the dashboard API.
type Handler struct {
	svc *Service
}

// NewHandler creates a new dashboard handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the dashboard API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/dashboard")
	g.GET("", h.GetDashboard)
	g.GET("/metrics", h.GetMetrics)
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id", h.EvaluateMeasure)
}

// GetDashboard returns every aggregate in a single report.
func (h *Handler) GetDashboard(c echo.Context) error {
	recent, err := recentParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.svc.Dashboard(recent))
}

// GetMetrics returns the headline counts.
func (h *Handler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Metrics())
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure computes one measure over the current roster.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	recent, err := recentParam(c)
	if err != nil {
		return err
	}
	report, err := h.svc.EvaluateMeasure(c.Param("id"), recent)
	if errors.Is(err, ErrUnknownMeasure) {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// recentParam reads ?recent=N. Absent means 0 (use the service default).
func recentParam(c echo.Context) (int, error) {
	v := c.QueryParam("recent")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "recent must be a positive integer")
	}
	return n, nil
}
