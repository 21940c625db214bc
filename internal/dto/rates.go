package dto

import (
	"strings"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// RatesQuery defines the query parameters accepted by every rate lookup endpoint.
type RatesQuery struct {
	Amount  float64 `form:"amount" binding:"omitempty,gt=0"`
	From    string  `form:"from" binding:"omitempty,currencycode"`
	Base    string  `form:"base" binding:"omitempty,currencycode"`
	To      string  `form:"to"`
	Symbols string  `form:"symbols"`
}

// AmountOrDefault returns the requested multiplier, defaulting to 1.
func (q RatesQuery) AmountOrDefault() float64 {
	if q.Amount <= 0 {
		return 1.0
	}
	return q.Amount
}

// BaseOrDefault returns the uppercased requested base currency. The "from"
// parameter wins over "base"; fallback applies when neither is set.
func (q RatesQuery) BaseOrDefault(fallback string) string {
	base := q.From
	if base == "" {
		base = q.Base
	}
	if base == "" {
		base = fallback
	}
	return strings.ToUpper(base)
}

// SymbolsFilter splits the comma-separated target filter, trimming blanks and
// uppercasing the rest. Returns nil when no filter was requested. The "to"
// parameter wins over "symbols".
func (q RatesQuery) SymbolsFilter() []string {
	raw := q.To
	if raw == "" {
		raw = q.Symbols
	}
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			symbols = append(symbols, code)
		}
	}
	if len(symbols) == 0 {
		return nil
	}
	return symbols
}

// RatesResponse defines the structure for API responses carrying a single day
// of converted rates.
type RatesResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// ToRatesResponse converts a domain.RatesResult to RatesResponse DTO
func ToRatesResponse(result domain.RatesResult) RatesResponse {
	return RatesResponse{
		Amount: result.Amount,
		Base:   result.Base,
		Date:   domain.FormatDate(result.Date),
		Rates:  result.Rates,
	}
}

// TimeSeriesResponse defines the structure for API responses carrying rates
// over a date window, keyed by YYYY-MM-DD date strings.
type TimeSeriesResponse struct {
	Amount    float64                       `json:"amount"`
	Base      string                        `json:"base"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Rates     map[string]map[string]float64 `json:"rates"`
}

// ToTimeSeriesResponse converts a domain.TimeSeriesResult to TimeSeriesResponse DTO
func ToTimeSeriesResponse(result domain.TimeSeriesResult) TimeSeriesResponse {
	rates := make(map[string]map[string]float64, len(result.Rates))
	for date, table := range result.Rates {
		rates[domain.FormatDate(date)] = table
	}
	return TimeSeriesResponse{
		Amount:    result.Amount,
		Base:      result.Base,
		StartDate: domain.FormatDate(result.StartDate),
		EndDate:   domain.FormatDate(result.EndDate),
		Rates:     rates,
	}
}
