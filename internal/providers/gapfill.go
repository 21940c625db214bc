package providers

import (
	"slices"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// FillGaps densifies a per-day rate sequence: every calendar day missing
// between two published days, and every day after the last published day up
// to and including today, gets a synthetic entry carrying the previous
// day's table. Sources like the ECB skip weekends and holidays; after this
// pass every date in [first published day, today] resolves.
//
// The input need not be sorted and is not modified. Synthetic entries are
// labeled with the passed provider name and copy the preceding table
// value-for-value. The reference day is an explicit parameter so callers
// and tests control it.
func FillGaps(rates []domain.DailyRates, provider string, today time.Time) []domain.DailyRates {
	if len(rates) == 0 {
		return rates
	}

	sorted := slices.Clone(rates)
	slices.SortFunc(sorted, func(a, b domain.DailyRates) int {
		return a.Date.Compare(b.Date)
	})

	filled := make([]domain.DailyRates, 0, len(sorted))
	for i, current := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			for d := prev.Date.AddDate(0, 0, 1); d.Before(current.Date); d = d.AddDate(0, 0, 1) {
				filled = append(filled, syntheticDay(prev, d, provider))
			}
		}
		filled = append(filled, current)
	}

	last := sorted[len(sorted)-1]
	for d := last.Date.AddDate(0, 0, 1); !d.After(domain.Day(today)); d = d.AddDate(0, 0, 1) {
		filled = append(filled, syntheticDay(last, d, provider))
	}

	return filled
}

func syntheticDay(from domain.DailyRates, date time.Time, provider string) domain.DailyRates {
	rates := make(map[string]float64, len(from.Rates))
	for code, rate := range from.Rates {
		rates[code] = rate
	}
	return domain.DailyRates{
		Date:         date,
		BaseCurrency: from.BaseCurrency,
		Rates:        rates,
		Provider:     provider,
	}
}
