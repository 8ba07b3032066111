package patient

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/migranthealth/tbdash/pkg/pagination"
)

type Handler struct {
	store  *Store
	logger zerolog.Logger
}

func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients/reload", h.ReloadPatients)
}

// ReloadResult is returned after the roster has been re-read from its source.
type ReloadResult struct {
	Source  string  `json:"source"`
	Loaded  int     `json:"loaded"`
	Skipped int     `json:"skipped"`
	Issues  []Issue `json:"issues,omitempty"`
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	outcome := c.QueryParam("outcome")
	resistance := c.QueryParam("resistance")

	snap := h.store.Snapshot()
	items := make([]Record, 0, len(snap.Records))
	for _, r := range snap.Records {
		if outcome != "" && !strings.EqualFold(r.OutcomeStatus, outcome) {
			continue
		}
		if resistance != "" && !strings.EqualFold(r.ResistanceStatus, resistance) {
			continue
		}
		items = append(items, r)
	}

	total := len(items)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(items, pg), total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	r, err := h.store.Find(c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ReloadPatients(c echo.Context) error {
	snap, err := h.store.Reload(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("roster reload failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	LogIssues(h.logger, snap.Issues)

	res := &LoadResult{Records: snap.Records, Issues: snap.Issues}
	return c.JSON(http.StatusOK, ReloadResult{
		Source:  snap.Source,
		Loaded:  len(snap.Records),
		Skipped: res.Skipped(),
		Issues:  snap.Issues,
	})
}

// LogIssues writes one warning per data-quality issue.
func LogIssues(logger zerolog.Logger, issues []Issue) {
	for _, is := range issues {
		logger.Warn().
			Str("patient_id", is.RecordID).
			Int("index", is.Index).
			Str("field", is.Field).
			Str("problem", is.Problem).
			Msg("malformed patient record")
	}
}
