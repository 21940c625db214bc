package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// ECBName is the registry identifier of the European Central Bank adapter.
const ECBName = "ecb"

const (
	ecbDailyURL   = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"
	ecbLast90URL  = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist-90d.xml"
	ecbHistoryURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist.xml"
)

// The ECB feed nests Cube elements three deep: a wrapper, one node per day
// carrying a time attribute, and one node per currency quote. The daily,
// 90-day and full-history files all share this shape.
type ecbEnvelope struct {
	Days []ecbDay `xml:"Cube>Cube"`
}

type ecbDay struct {
	Time   string     `xml:"time,attr"`
	Quotes []ecbQuote `xml:"Cube"`
}

type ecbQuote struct {
	Currency string  `xml:"currency,attr"`
	Rate     float64 `xml:"rate,attr"`
}

// ECB serves the European Central Bank euro foreign exchange reference
// rates, published every TARGET working day. Quotes are euro-based
// ("1 EUR = rate units of currency") and are rebased onto the internal
// pivot during parsing.
type ECB struct {
	client     *http.Client
	logger     *slog.Logger
	dailyURL   string
	last90URL  string
	historyURL string
	now        func() time.Time
}

// ECBOption configures an ECB provider.
type ECBOption func(*ECB)

// WithECBEndpoints overrides the upstream URLs, used by tests.
func WithECBEndpoints(daily, last90, history string) ECBOption {
	return func(e *ECB) {
		e.dailyURL = daily
		e.last90URL = last90
		e.historyURL = history
	}
}

// WithECBClock overrides the reference clock, used by tests.
func WithECBClock(now func() time.Time) ECBOption {
	return func(e *ECB) {
		e.now = now
	}
}

// NewECB creates the ECB provider on top of a shared HTTP client.
func NewECB(client *http.Client, logger *slog.Logger, opts ...ECBOption) *ECB {
	e := &ECB{
		client:     client,
		logger:     logger,
		dailyURL:   ecbDailyURL,
		last90URL:  ecbLast90URL,
		historyURL: ecbHistoryURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Provider = (*ECB)(nil)

func (e *ECB) Name() string {
	return ECBName
}

func (e *ECB) Description() string {
	return "European Central Bank - daily EUR reference rates"
}

// SupportedCurrencies returns the fixed catalog the ECB has quoted against
// the euro since 1999.
func (e *ECB) SupportedCurrencies(_ context.Context) ([]domain.Currency, error) {
	return slices.Clone(ecbCurrencyCatalog), nil
}

// FetchLatest returns the most recent published day from the daily feed.
func (e *ECB) FetchLatest(ctx context.Context) (domain.DailyRates, error) {
	days, err := e.fetchFilled(ctx, e.dailyURL)
	if err != nil {
		return domain.DailyRates{}, err
	}
	if len(days) == 0 {
		return domain.DailyRates{}, fmt.Errorf("%w: no rates in ECB response", apperrors.ErrParse)
	}
	return days[0], nil
}

// FetchDate serves a single day out of the smallest feed that can cover it.
// Thanks to gap-filling, weekends and holidays resolve to the preceding
// publication.
func (e *ECB) FetchDate(ctx context.Context, date time.Time) (domain.DailyRates, error) {
	date = domain.Day(date)
	days, err := e.fetchFilled(ctx, e.rangeURL(date))
	if err != nil {
		return domain.DailyRates{}, err
	}
	for _, day := range days {
		if day.Date.Equal(date) {
			return day, nil
		}
	}
	return domain.DailyRates{}, fmt.Errorf("%w: ecb has no rates for %s", apperrors.ErrNoData, domain.FormatDate(date))
}

func (e *ECB) FetchRange(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error) {
	start, end = domain.Day(start), domain.Day(end)
	days, err := e.fetchFilled(ctx, e.rangeURL(start))
	if err != nil {
		return nil, err
	}

	var inRange []domain.DailyRates
	for _, day := range days {
		if !day.Date.Before(start) && !day.Date.After(end) {
			inRange = append(inRange, day)
		}
	}
	return inRange, nil
}

func (e *ECB) FetchFullHistory(ctx context.Context) ([]domain.DailyRates, error) {
	return e.fetchFilled(ctx, e.historyURL)
}

// rangeURL picks the cheapest feed able to cover a window starting at
// start: the rolling 90-day file unless the window reaches further back.
func (e *ECB) rangeURL(start time.Time) string {
	cutoff := domain.Day(e.now()).AddDate(0, 0, -90)
	if start.Before(cutoff) {
		return e.historyURL
	}
	return e.last90URL
}

func (e *ECB) fetchFilled(ctx context.Context, url string) ([]domain.DailyRates, error) {
	body, err := fetchBody(ctx, e.client, url, ECBName)
	if err != nil {
		return nil, err
	}
	days, err := ParseECBHistory(body, e.logger)
	if err != nil {
		return nil, err
	}
	return FillGaps(days, ECBName, e.now()), nil
}

// ParseECBHistory decodes an ECB reference-rate XML document and
// triangulates each day into the internal pivot: the euro is added to the
// table at 1.0, the table is rebased onto the USD quote, and USD itself is
// re-added at 1.0. Days without a USD quote are skipped with a warning.
// The seeder uses this directly on local history files.
func ParseECBHistory(data []byte, logger *slog.Logger) ([]domain.DailyRates, error) {
	var envelope ecbEnvelope
	if err := xml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: ecb: %v", apperrors.ErrParse, err)
	}

	days := make([]domain.DailyRates, 0, len(envelope.Days))
	for _, day := range envelope.Days {
		date, err := time.Parse(domain.DateLayout, day.Time)
		if err != nil {
			logger.Warn("skipping ECB day with malformed date", slog.String("time", day.Time))
			continue
		}

		euroRates := make(map[string]float64, len(day.Quotes)+1)
		euroRates["EUR"] = 1.0
		for _, quote := range day.Quotes {
			if quote.Currency == "" || quote.Rate <= 0 {
				continue
			}
			euroRates[quote.Currency] = quote.Rate
		}

		usdRates, err := domain.RebaseRates(euroRates, "EUR", domain.InternalBase)
		if err != nil {
			logger.Warn("skipping ECB day without USD quote", slog.String("date", day.Time))
			continue
		}
		usdRates[domain.InternalBase] = 1.0

		days = append(days, domain.DailyRates{
			Date:         domain.Day(date),
			BaseCurrency: domain.InternalBase,
			Rates:        usdRates,
			Provider:     ECBName,
		})
	}
	return days, nil
}

var ecbCurrencyCatalog = []domain.Currency{
	{Code: "EUR", Name: "Euro"},
	{Code: "USD", Name: "US Dollar"},
	{Code: "JPY", Name: "Japanese Yen"},
	{Code: "BGN", Name: "Bulgarian Lev"},
	{Code: "CZK", Name: "Czech Koruna"},
	{Code: "DKK", Name: "Danish Krone"},
	{Code: "GBP", Name: "British Pound"},
	{Code: "HUF", Name: "Hungarian Forint"},
	{Code: "PLN", Name: "Polish Zloty"},
	{Code: "RON", Name: "Romanian Leu"},
	{Code: "SEK", Name: "Swedish Krona"},
	{Code: "CHF", Name: "Swiss Franc"},
	{Code: "ISK", Name: "Icelandic Krona"},
	{Code: "NOK", Name: "Norwegian Krone"},
	{Code: "TRY", Name: "Turkish Lira"},
	{Code: "AUD", Name: "Australian Dollar"},
	{Code: "BRL", Name: "Brazilian Real"},
	{Code: "CAD", Name: "Canadian Dollar"},
	{Code: "CNY", Name: "Chinese Yuan"},
	{Code: "HKD", Name: "Hong Kong Dollar"},
	{Code: "IDR", Name: "Indonesian Rupiah"},
	{Code: "ILS", Name: "Israeli Shekel"},
	{Code: "INR", Name: "Indian Rupee"},
	{Code: "KRW", Name: "South Korean Won"},
	{Code: "MXN", Name: "Mexican Peso"},
	{Code: "MYR", Name: "Malaysian Ringgit"},
	{Code: "NZD", Name: "New Zealand Dollar"},
	{Code: "PHP", Name: "Philippine Peso"},
	{Code: "SGD", Name: "Singapore Dollar"},
	{Code: "THB", Name: "Thai Baht"},
	{Code: "ZAR", Name: "South African Rand"},
}
