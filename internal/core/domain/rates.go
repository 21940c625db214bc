package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
)

// InternalBase is the pivot currency every provider's quotes are normalized
// to before storage. Stored tables always answer "1 USD = Rate units of
// target".
const InternalBase = "USD"

// DateLayout is the canonical wire format for rate dates.
const DateLayout = "2006-01-02"

// CompactDateLayout is the digits-only date form some upstreams and clients
// use.
const CompactDateLayout = "20060102"

// Day normalizes t to midnight UTC. Every stored or map-keyed date in the
// system passes through this so dates compare and hash by calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a normalized date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ExchangeRate is a single persisted quote: 1 BaseCurrency = Rate units of
// TargetCurrency on Date, according to Provider.
type ExchangeRate struct {
	Date           time.Time `json:"date"`
	BaseCurrency   string    `json:"baseCurrency"`
	TargetCurrency string    `json:"targetCurrency"`
	Rate           float64   `json:"rate"`
	Provider       string    `json:"provider"`
}

// DailyRates is one provider-day rate table, the unit of ingestion,
// gap-filling and storage. Rates maps target code to the quote for one unit
// of BaseCurrency.
type DailyRates struct {
	Date         time.Time          `json:"date"`
	BaseCurrency string             `json:"baseCurrency"`
	Rates        map[string]float64 `json:"rates"`
	Provider     string             `json:"provider"`
}

// RatesResult is the query-time projection of one day's rates after base
// conversion, symbol filtering and amount scaling. It is never persisted.
type RatesResult struct {
	Amount float64
	Base   string
	Date   time.Time
	Rates  map[string]float64
}

// TimeSeriesResult is the query-time projection of a date range. Rates is
// keyed by normalized day; days with no stored data carry no key.
type TimeSeriesResult struct {
	Amount    float64
	Base      string
	StartDate time.Time
	EndDate   time.Time
	Rates     map[time.Time]map[string]float64
}

// RebaseRates re-expresses a rate table quoted against fromBase as a table
// quoted against toBase. It is the one conversion primitive in the system:
// provider adapters use it to triangulate native quotes into InternalBase,
// and the query path uses it to serve arbitrary bases from stored tables.
//
// The input must hold a positive quote for toBase or ErrInvalidCurrency is
// returned. Every other entry is divided by that quote, fromBase is
// re-inserted at the quote's inverse, and toBase itself is left out of the
// result (implicitly 1.0). No rounding is applied here.
func RebaseRates(rates map[string]float64, fromBase, toBase string) (map[string]float64, error) {
	if fromBase == toBase {
		out := make(map[string]float64, len(rates))
		for code, rate := range rates {
			out[code] = rate
		}
		return out, nil
	}

	quote, ok := rates[toBase]
	if !ok || quote == 0 {
		return nil, fmt.Errorf("%w: no quote for %s", apperrors.ErrInvalidCurrency, toBase)
	}

	out := make(map[string]float64, len(rates))
	for code, rate := range rates {
		if code == toBase {
			continue
		}
		out[code] = rate / quote
	}
	out[fromBase] = 1 / quote
	return out, nil
}

// RoundRate rounds a converted rate to six decimal places for presentation.
// Stored and intermediate values are never rounded.
func RoundRate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
