package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/labeling"
	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// LabelingRunner triggers sentiment labeling runs
type LabelingRunner interface {
	Run(ctx context.Context, providerName string, startUTC, endUTC int64) (*labeling.RunSummary, error)
	RunDetached(ctx context.Context, providerName string, startUTC, endUTC int64)
}

// SentimentReader reads stored sentiment labels
type SentimentReader interface {
	GetLabelsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.SentimentLabel, error)
}

// PredictionRunner triggers prediction cycles
type PredictionRunner interface {
	RunCycle(ctx context.Context) ([]models.PredictionRecord, error)
}

// PredictionReader reads stored predictions
type PredictionReader interface {
	GetRecentPredictions(ctx context.Context, currency string, limit int) ([]models.PredictionRecord, error)
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Handler holds all HTTP route implementations
type Handler struct {
	labeler     LabelingRunner
	sentiments  SentimentReader
	predictor   PredictionRunner
	predictions PredictionReader
	checks      map[string]HealthCheck
}

// NewHandler creates the route handler set
func NewHandler(labeler LabelingRunner, sentiments SentimentReader, predictor PredictionRunner, predictions PredictionReader, checks map[string]HealthCheck) *Handler {
	return &Handler{
		labeler:     labeler,
		sentiments:  sentiments,
		predictor:   predictor,
		predictions: predictions,
		checks:      checks,
	}
}

// RegisterRoutes attaches all routes to the Echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	llm := e.Group("/api/llm")
	llm.GET("/reddit_sentiments_by_date_range", h.LabelDateRange)
	llm.GET("/reddit_sentiments_hourly", h.LabelHourly)
	llm.GET("/sentiments", h.Sentiments)

	mlGroup := e.Group("/api/ml")
	mlGroup.POST("/predict", h.Predict)

	e.GET("/api/predictions", h.Predictions)
}

// Health reports the status of every registered dependency probe
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
		} else {
			result[name] = "ok"
		}
	}

	return c.JSON(status, result)
}

// LabelDateRange starts a detached labeling run over the requested
// unix-timestamp window and acknowledges immediately
func (h *Handler) LabelDateRange(c echo.Context) error {
	startUTC, endUTC, err := queryWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.labeler.RunDetached(c.Request().Context(), c.QueryParam("provider"), startUTC, endUTC)
	return c.JSON(http.StatusAccepted, map[string]string{
		"status": "labeling started",
	})
}

// Sentiments returns stored labels for comments created in the requested
// unix-timestamp window
func (h *Handler) Sentiments(c echo.Context) error {
	startUTC, endUTC, err := queryWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	labels, err := h.sentiments.GetLabelsByDateRange(c.Request().Context(), startUTC, endUTC)
	if err != nil {
		logger.Error("Failed to read sentiments", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read sentiments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":      len(labels),
		"sentiments": labels,
	})
}

// LabelHourly labels the last N hours of discussions. By default the run is
// detached and the request is acknowledged immediately; pass wait=true to
// block until it finishes and get the run summary back.
func (h *Handler) LabelHourly(c echo.Context) error {
	hours := int64(1)
	if raw := c.QueryParam("hours"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "hours must be a positive integer")
		}
		hours = parsed
	}

	provider := c.QueryParam("provider")
	endUTC := time.Now().UTC().Unix()
	startUTC := endUTC - hours*3600

	if c.QueryParam("wait") == "true" {
		summary, err := h.labeler.Run(c.Request().Context(), provider, startUTC, endUTC)
		if err != nil {
			if errors.Is(err, labeling.ErrNoDiscussions) {
				return echo.NewHTTPError(http.StatusNotFound, err.Error())
			}
			logger.Error("Labeling run failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, summary)
	}

	h.labeler.RunDetached(c.Request().Context(), provider, startUTC, endUTC)
	return c.JSON(http.StatusAccepted, map[string]string{
		"status": "labeling started",
	})
}

// Predict runs a full prediction cycle and returns the stored predictions
func (h *Handler) Predict(c echo.Context) error {
	records, err := h.predictor.RunCycle(c.Request().Context())
	if err != nil {
		logger.Error("Prediction cycle failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

// Predictions lists recent predictions, optionally filtered by currency
func (h *Handler) Predictions(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	records, err := h.predictions.GetRecentPredictions(c.Request().Context(), c.QueryParam("currency"), limit)
	if err != nil {
		logger.Error("Failed to read predictions", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read predictions")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

// queryWindow parses the start_date/end_date unix-second parameters
func queryWindow(c echo.Context) (int64, int64, error) {
	startUTC, err := queryInt64(c, "start_date")
	if err != nil {
		return 0, 0, err
	}
	endUTC, err := queryInt64(c, "end_date")
	if err != nil {
		return 0, 0, err
	}
	if endUTC < startUTC {
		return 0, 0, errors.New("end_date must not precede start_date")
	}
	return startUTC, endUTC, nil
}

func queryInt64(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be a unix timestamp")
	}
	return v, nil
}
