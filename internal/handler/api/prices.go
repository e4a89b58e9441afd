package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	svcmetrics "MandiPulse/internal/service/metrics"
	"MandiPulse/internal/services/analytics"
	xhttp "MandiPulse/pkg/http"
	"MandiPulse/pkg/http/middleware"
	xlogger "MandiPulse/pkg/logger"
)

// PriceChecker runs one price check end to end.
type PriceChecker interface {
	Check(ctx context.Context, req models.PriceCheckRequest) (models.AnalysisResult, error)
}

// AlertStream upgrades a request into a live alert subscription.
type AlertStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// PricesHandler serves the price check API. Store and alerts are optional;
// their routes answer 503 when absent.
type PricesHandler struct {
	logger  *xlogger.Logger
	checker PriceChecker
	store   domrepo.AnalysisStore
	alerts  AlertStream
	limiter middleware.Limiter
}

func NewPricesHandler(logger *xlogger.Logger, checker PriceChecker, store domrepo.AnalysisStore, alerts AlertStream, limiter middleware.Limiter) *PricesHandler {
	svcmetrics.Register()
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &PricesHandler{logger: logger, checker: checker, store: store, alerts: alerts, limiter: limiter}
}

func (h *PricesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ws/alerts", h.Alerts)

	g := e.Group("/api/v1", middleware.RateLimit(h.limiter))
	g.POST("/check-price", h.CheckPrice)
	g.GET("/vocabulary", h.Vocabulary)
	g.GET("/anomalies", h.Anomalies)
}

// Health reports liveness. Predictors are loaded before the server starts,
// so a running handler always has them.
func (h *PricesHandler) Health(c echo.Context) error {
	body := map[string]interface{}{
		"status":        "ok",
		"models_loaded": h.checker != nil,
	}
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Health(ctx); err != nil {
			body["clickhouse"] = "down"
		} else {
			body["clickhouse"] = "ok"
		}
	}
	return c.JSON(http.StatusOK, body)
}

func (h *PricesHandler) CheckPrice(c echo.Context) error {
	start := time.Now()
	var failed error
	defer func() { svcmetrics.Observe("check_price", start, failed) }()

	req := &models.PriceCheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.checker.Check(c.Request().Context(), *req)
	if err != nil {
		failed = err
		appErr := mapAnalysisError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("check_price usecase error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return c.JSON(http.StatusOK, models.PriceCheckResponse{AnalysisResult: res, Input: *req})
}

func (h *PricesHandler) Vocabulary(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, models.CurrentVocabulary())
}

func (h *PricesHandler) Anomalies(c echo.Context) error {
	start := time.Now()
	var failed error
	defer func() { svcmetrics.Observe("anomalies", start, failed) }()

	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("Verdict storage is disabled"))
	}
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Market != "" {
		if _, perr := models.ParseMarket(req.Market); perr != nil {
			return xhttp.AppErrorResponse(c, mapAnalysisError(perr))
		}
	}

	rows, err := h.store.RecentAnomalies(c.Request().Context(), req.Market, req.Limit)
	if err != nil {
		failed = err
		h.logger.Error("anomalies store error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("Could not load anomalies").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PricesHandler) Alerts(c echo.Context) error {
	if h.alerts == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("Alert stream is disabled"))
	}
	if err := h.alerts.ServeWS(c.Response(), c.Request()); err != nil {
		h.logger.Warn("alerts upgrade error", xlogger.Error(err))
	}
	return nil
}

func mapAnalysisError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidVocabulary):
		return xhttp.NewAppError("ERR_INVALID_VOCABULARY", "", "Invalid Commodity or Market Name", http.StatusBadRequest).WithError(err)
	case errors.Is(err, analytics.ErrDegenerateExpectedPrice):
		return xhttp.UnprocessableError("ERR_DEGENERATE_EXPECTED_PRICE", "Expected price is too small to compare against").WithError(err)
	case errors.Is(err, analytics.ErrInference):
		return xhttp.NewAppError("ERR_INFERENCE", "", "Price model inference failed", http.StatusInternalServerError).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.TimeoutError("Analysis timed out").WithError(err)
	case errors.Is(err, context.Canceled):
		return xhttp.NewAppError("ERR_CANCELED", "", "Request canceled", http.StatusRequestTimeout).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
