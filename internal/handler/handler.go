package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"labentry/internal/labentry"
)

// EntryService is the lab entry behaviour the HTTP layer drives.
type EntryService interface {
	CreateEntry(ctx context.Context, admissionNo string) (labentry.Entry, error)
	ListEntries(ctx context.Context, q labentry.Query) ([]labentry.Entry, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type Handler struct {
	entries EntryService
	checks  map[string]HealthChecker
	logger  *slog.Logger
}

func New(entries EntryService, checks map[string]HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{entries: entries, checks: checks, logger: logger}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/healthz", h.Healthz)
		api.GET("/entries", h.ListEntries)
		api.POST("/entry", h.CreateEntry)
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		healthy := check != nil && check.Healthy(c.Request.Context())
		body[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- Entries ----------

type createEntryRequest struct {
	AdmissionNo string `json:"admissionNo"`
}

// CreateEntry logs a lab entry for the posted admission number.
// A body that does not decode is treated as carrying no admission number.
func (h *Handler) CreateEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("create entry: unreadable body", "error", err)
		req = createEntryRequest{}
	}

	entry, err := h.entries.CreateEntry(c.Request.Context(), req.AdmissionNo)
	if err != nil {
		h.writeError(c, "create entry", err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListEntries returns entries filtered by the optional class, section and date query parameters.
func (h *Handler) ListEntries(c *gin.Context) {
	q := labentry.Query{
		Class:   c.Query("class"),
		Section: c.Query("section"),
		Date:    c.Query("date"),
	}
	entries, err := h.entries.ListEntries(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, "list entries", err)
		return
	}
	if entries == nil {
		entries = []labentry.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var vErr *labentry.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
	case errors.Is(err, labentry.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed", "operation", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
