package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portssvc "github.com/ratewatch/currency-rates-service/internal/core/ports/services"
	"github.com/ratewatch/currency-rates-service/internal/dto"
	"github.com/ratewatch/currency-rates-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ratesHandler handles HTTP requests for rate lookups, currencies and health.
type ratesHandler struct {
	ratesService portssvc.RatesSvcFacade
	defaultBase  string
}

// newRatesHandler creates a new ratesHandler.
func newRatesHandler(rs portssvc.RatesSvcFacade, defaultBase string) *ratesHandler {
	return &ratesHandler{
		ratesService: rs,
		defaultBase:  defaultBase,
	}
}

// registerRatesRoutes registers the rate lookup routes. Everything under a
// single-segment path goes through one wildcard route so that fixed paths
// like /latest never conflict with /{date} in gin's route tree.
func registerRatesRoutes(r *gin.Engine, ratesService portssvc.RatesSvcFacade, defaultBase string) {
	h := newRatesHandler(ratesService, defaultBase)

	r.GET("/", getAPIInfo)
	r.GET("/:datePath", h.getByDatePath)
}

// getAPIInfo godoc
// @Summary API info
// @Description Returns the API name, version and endpoint map.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func getAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Currency Rates API",
		"version":     apiVersion,
		"description": "Currency exchange rates API with multiple providers",
		"endpoints": gin.H{
			"/currencies":               "List supported currencies",
			"/latest":                   "Get latest rates",
			"/{date}":                   "Get rates for a specific date (YYYY-MM-DD)",
			"/{start_date}..{end_date}": "Get rates for a date range",
			"/health":                   "Health check",
			"/sync":                     "Trigger a sync of all providers (POST)",
			"/sync/{provider}":          "Trigger a sync of one provider (POST)",
		},
	})
}

// getByDatePath dispatches the wildcard date segment. The fixed words
// latest, currencies and health take priority; everything else is parsed
// as a date or a date range.
func (h *ratesHandler) getByDatePath(c *gin.Context) {
	switch c.Param("datePath") {
	case "latest":
		h.getLatest(c)
	case "currencies":
		h.getCurrencies(c)
	case "health":
		h.getHealth(c)
	default:
		h.getHistorical(c)
	}
}

// getLatest godoc
// @Summary Latest rates
// @Description Returns the most recent day of rates, rebased to the requested base currency.
// @Tags rates
// @Produce json
// @Param amount query number false "Amount to convert" default(1)
// @Param from query string false "Base currency code" default(USD)
// @Param to query string false "Comma-separated target currency codes"
// @Success 200 {object} dto.RatesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 404 {object} map[string]string "Unknown currency or no data"
// @Router /latest [get]
func (h *ratesHandler) getLatest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	query, ok := bindRatesQuery(c, logger)
	if !ok {
		return
	}

	result, err := h.ratesService.GetLatest(c.Request.Context(), query.BaseOrDefault(h.defaultBase), query.SymbolsFilter(), query.AmountOrDefault())
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRatesResponse(result))
}

// getHistorical godoc
// @Summary Rates for a date or date range
// @Description Returns rates for a single date (YYYY-MM-DD or YYYYMMDD) or an inclusive range (start..end).
// @Tags rates
// @Produce json
// @Param datePath path string true "Date or start..end range"
// @Param amount query number false "Amount to convert" default(1)
// @Param from query string false "Base currency code" default(USD)
// @Param to query string false "Comma-separated target currency codes"
// @Success 200 {object} dto.RatesResponse
// @Failure 400 {object} map[string]string "Malformed date or range"
// @Failure 404 {object} map[string]string "Unknown currency or no data"
// @Router /{datePath} [get]
func (h *ratesHandler) getHistorical(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	query, ok := bindRatesQuery(c, logger)
	if !ok {
		return
	}

	datePath := c.Param("datePath")
	base := query.BaseOrDefault(h.defaultBase)
	symbols := query.SymbolsFilter()
	amount := query.AmountOrDefault()

	if strings.Contains(datePath, "..") {
		parts := strings.Split(datePath, "..")
		if len(parts) != 2 {
			writeRatesError(c, logger, fmt.Errorf("%w: invalid range %q, use YYYY-MM-DD..YYYY-MM-DD", apperrors.ErrInvalidDate, datePath))
			return
		}
		start, err := parseDate(parts[0])
		if err != nil {
			writeRatesError(c, logger, err)
			return
		}
		end, err := parseDate(parts[1])
		if err != nil {
			writeRatesError(c, logger, err)
			return
		}

		result, err := h.ratesService.GetTimeSeries(c.Request.Context(), start, end, base, symbols, amount)
		if err != nil {
			writeRatesError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToTimeSeriesResponse(result))
		return
	}

	date, err := parseDate(datePath)
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	logger.Debug("Fetching rates", slog.String("date", domain.FormatDate(date)), slog.String("base", base))

	result, err := h.ratesService.GetRatesForDate(c.Request.Context(), date, base, symbols, amount)
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRatesResponse(result))
}

// getCurrencies godoc
// @Summary List currencies
// @Description Returns a map of currency code to display name for every known currency.
// @Tags rates
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string "Failed to list currencies"
// @Router /currencies [get]
func (h *ratesHandler) getCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currencies, err := h.ratesService.GetCurrencies(c.Request.Context())
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, currencies)
}

// getHealth godoc
// @Summary Health check
// @Description Reports service status, version and per-provider sync freshness.
// @Tags root
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 500 {object} map[string]string "Failed to collect provider status"
// @Router /health [get]
func (h *ratesHandler) getHealth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	statuses, err := h.ratesService.GetProvidersInfo(c.Request.Context())
	if err != nil {
		writeRatesError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToHealthResponse(apiVersion, statuses))
}

// bindRatesQuery binds the shared query parameters, answering a 400 on
// validation failure.
func bindRatesQuery(c *gin.Context, logger *slog.Logger) (dto.RatesQuery, bool) {
	var query dto.RatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind rate query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return dto.RatesQuery{}, false
	}
	return query, true
}

// parseDate accepts ISO (2006-01-02) and compact (20060102) date forms.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{domain.DateLayout, domain.CompactDateLayout} {
		if date, err := time.Parse(layout, s); err == nil {
			return domain.Day(date), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q, use YYYY-MM-DD or YYYYMMDD", apperrors.ErrInvalidDate, s)
}

// writeRatesError maps service errors onto HTTP statuses.
func writeRatesError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, apperrors.ErrInvalidDate) {
		logger.Warn("Rejected malformed date input", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrInvalidCurrency) || errors.Is(err, apperrors.ErrNoData) || errors.Is(err, apperrors.ErrUnknownProvider) {
		logger.Warn("Requested data not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrTransport) {
		logger.Error("Upstream provider unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	} else {
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
