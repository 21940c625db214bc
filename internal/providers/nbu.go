package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// NBUName is the registry identifier of the National Bank of Ukraine
// adapter.
const NBUName = "nbu"

const (
	nbuDailyURL = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange"
	nbuBatchURL = "https://bank.gov.ua/NBU_Exchange/exchange_site"

	// nbuDateLayout is the DD.MM.YYYY form both NBU APIs use.
	nbuDateLayout = "02.01.2006"

	// nbuRequestDelay spaces out the per-currency batch calls.
	nbuRequestDelay = 50 * time.Millisecond
)

// nbuHistoryStart is the earliest date the NBU archive serves.
var nbuHistoryStart = time.Date(1999, time.January, 4, 0, 0, 0, 0, time.UTC)

// nbuCurrencies is the curated set fetched through the per-currency batch
// API: regional currencies best sourced from the NBU. The internal pivot is
// always queried alongside as the triangulation bridge.
var nbuCurrencies = []string{"UAH", "KZT", "LBP", "MDL", "SAR", "VND", "EGP", "GEL"}

// nbuRate is one row of the daily exchange directory.
type nbuRate struct {
	R030         int     `json:"r030"`
	Rate         float64 `json:"rate"` // UAH per one unit
	Txt          string  `json:"txt"`  // Ukrainian display name
	CC           string  `json:"cc"`
	ExchangeDate string  `json:"exchangedate"`
}

// nbuBatchRate is one row of the per-currency archive API.
type nbuBatchRate struct {
	ExchangeDate string  `json:"exchangedate"`
	R030         int     `json:"r030"`
	CC           string  `json:"cc"`
	Units        int     `json:"units"`
	Rate         float64 `json:"rate"`          // UAH per Units units
	RatePerUnit  float64 `json:"rate_per_unit"` // UAH per one unit
}

// NBU serves the National Bank of Ukraine official rates. Quotes are
// inverse relative to the ECB convention ("1 unit of foreign currency =
// rate UAH"), so the adapter inverts them into a hryvnia-based table before
// the shared rebase.
type NBU struct {
	client   *http.Client
	logger   *slog.Logger
	dailyURL string
	batchURL string
	delay    time.Duration
	now      func() time.Time
}

// NBUOption configures an NBU provider.
type NBUOption func(*NBU)

// WithNBUEndpoints overrides the upstream URLs, used by tests.
func WithNBUEndpoints(daily, batch string) NBUOption {
	return func(n *NBU) {
		n.dailyURL = daily
		n.batchURL = batch
	}
}

// WithNBUClock overrides the reference clock, used by tests.
func WithNBUClock(now func() time.Time) NBUOption {
	return func(n *NBU) {
		n.now = now
	}
}

// WithNBURequestDelay overrides the pause between batch calls, used by
// tests to avoid real sleeps.
func WithNBURequestDelay(d time.Duration) NBUOption {
	return func(n *NBU) {
		n.delay = d
	}
}

// NewNBU creates the NBU provider on top of a shared HTTP client.
func NewNBU(client *http.Client, logger *slog.Logger, opts ...NBUOption) *NBU {
	n := &NBU{
		client:   client,
		logger:   logger,
		dailyURL: nbuDailyURL,
		batchURL: nbuBatchURL,
		delay:    nbuRequestDelay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ Provider = (*NBU)(nil)

func (n *NBU) Name() string {
	return NBUName
}

func (n *NBU) Description() string {
	return "National Bank of Ukraine - daily UAH reference rates"
}

// SupportedCurrencies lists everything the daily directory currently
// quotes, with the hryvnia itself first.
func (n *NBU) SupportedCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := n.fetchDaily(ctx, "json")
	if err != nil {
		return nil, err
	}

	currencies := make([]domain.Currency, 0, len(rows)+1)
	currencies = append(currencies, domain.Currency{Code: "UAH", Name: "Ukrainian Hryvnia"})
	for _, row := range rows {
		currencies = append(currencies, domain.Currency{
			Code: strings.ToUpper(row.CC),
			Name: row.Txt,
		})
	}
	return currencies, nil
}

func (n *NBU) FetchLatest(ctx context.Context) (domain.DailyRates, error) {
	rows, err := n.fetchDaily(ctx, "json")
	if err != nil {
		return domain.DailyRates{}, err
	}
	if len(rows) == 0 {
		return domain.DailyRates{}, fmt.Errorf("%w: empty NBU response", apperrors.ErrParse)
	}
	return n.dailyToPivot(rows)
}

func (n *NBU) FetchDate(ctx context.Context, date time.Time) (domain.DailyRates, error) {
	date = domain.Day(date)
	query := fmt.Sprintf("date=%s&json", date.Format(domain.CompactDateLayout))
	rows, err := n.fetchDaily(ctx, query)
	if err != nil {
		return domain.DailyRates{}, err
	}
	if len(rows) == 0 {
		return domain.DailyRates{}, fmt.Errorf("%w: nbu has no rates for %s", apperrors.ErrNoData, domain.FormatDate(date))
	}
	return n.dailyToPivot(rows)
}

// FetchRange queries the archive API once per curated currency (it only
// answers per-currency), merges the rows by date and triangulates each date
// that carries a USD quote. A failed currency or an unconvertible day is
// logged and skipped, never fatal.
func (n *NBU) FetchRange(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error) {
	start, end = domain.Day(start), domain.Day(end)
	startStr := start.Format(domain.CompactDateLayout)
	endStr := end.Format(domain.CompactDateLayout)

	codes := append([]string{domain.InternalBase}, nbuCurrencies...)
	uahQuotesByDate := make(map[time.Time]map[string]float64)

	for i, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && n.delay > 0 {
			select {
			case <-time.After(n.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		url := fmt.Sprintf("%s?start=%s&end=%s&valcode=%s&sort=exchangedate&order=asc&json",
			n.batchURL, startStr, endStr, strings.ToLower(code))

		body, err := fetchBody(ctx, n.client, url, NBUName)
		if err != nil {
			n.logger.Warn("failed to fetch NBU archive slice",
				slog.String("currency", code), slog.String("error", err.Error()))
			continue
		}

		var rows []nbuBatchRate
		if err := json.Unmarshal(body, &rows); err != nil {
			n.logger.Warn("failed to parse NBU archive slice",
				slog.String("currency", code), slog.String("error", err.Error()))
			continue
		}

		accumulateBatchRows(uahQuotesByDate, rows)
	}

	return daysFromUAHQuotes(uahQuotesByDate, n.logger), nil
}

// ParseNBUSeed parses a bundled history file holding archive rows grouped
// by currency code, merging every currency slice into sorted internal-pivot
// tables. Days without a USD quote are skipped. The file carries the same
// row shape the archive API serves per currency.
func ParseNBUSeed(data []byte, logger *slog.Logger) ([]domain.DailyRates, error) {
	var byCode map[string][]nbuBatchRate
	if err := json.Unmarshal(data, &byCode); err != nil {
		return nil, fmt.Errorf("%w: nbu: %v", apperrors.ErrParse, err)
	}

	uahQuotesByDate := make(map[time.Time]map[string]float64)
	for _, rows := range byCode {
		accumulateBatchRows(uahQuotesByDate, rows)
	}

	return daysFromUAHQuotes(uahQuotesByDate, logger), nil
}

// accumulateBatchRows folds archive rows into per-date UAH quote maps,
// dropping rows with unparseable dates.
func accumulateBatchRows(uahQuotesByDate map[time.Time]map[string]float64, rows []nbuBatchRate) {
	for _, row := range rows {
		date, err := time.Parse(nbuDateLayout, row.ExchangeDate)
		if err != nil {
			continue
		}
		day := domain.Day(date)
		if uahQuotesByDate[day] == nil {
			uahQuotesByDate[day] = make(map[string]float64)
		}
		uahQuotesByDate[day][strings.ToUpper(row.CC)] = row.RatePerUnit
	}
}

// daysFromUAHQuotes triangulates each accumulated day onto the internal
// pivot and returns the days in date order.
func daysFromUAHQuotes(uahQuotesByDate map[time.Time]map[string]float64, logger *slog.Logger) []domain.DailyRates {
	results := make([]domain.DailyRates, 0, len(uahQuotesByDate))
	for date, quotes := range uahQuotesByDate {
		usdRates, err := triangulateUAH(quotes)
		if err != nil {
			logger.Warn("skipping NBU day without USD quote",
				slog.String("date", domain.FormatDate(date)))
			continue
		}
		results = append(results, domain.DailyRates{
			Date:         date,
			BaseCurrency: domain.InternalBase,
			Rates:        usdRates,
			Provider:     NBUName,
		})
	}

	slices.SortFunc(results, func(a, b domain.DailyRates) int {
		return a.Date.Compare(b.Date)
	})
	return results
}

func (n *NBU) FetchFullHistory(ctx context.Context) ([]domain.DailyRates, error) {
	return n.FetchRange(ctx, nbuHistoryStart, domain.Day(n.now()))
}

func (n *NBU) fetchDaily(ctx context.Context, rawQuery string) ([]nbuRate, error) {
	body, err := fetchBody(ctx, n.client, n.dailyURL+"?"+rawQuery, NBUName)
	if err != nil {
		return nil, err
	}
	var rows []nbuRate
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: nbu: %v", apperrors.ErrParse, err)
	}
	return rows, nil
}

// dailyToPivot converts one day of directory rows into an internal-pivot
// table. The directory quotes per one unit already, so rows feed the
// triangulation as-is.
func (n *NBU) dailyToPivot(rows []nbuRate) (domain.DailyRates, error) {
	date, err := time.Parse(nbuDateLayout, rows[0].ExchangeDate)
	if err != nil {
		return domain.DailyRates{}, fmt.Errorf("%w: nbu: bad exchangedate %q", apperrors.ErrParse, rows[0].ExchangeDate)
	}

	uahQuotes := make(map[string]float64, len(rows))
	for _, row := range rows {
		if row.Rate > 0 {
			uahQuotes[strings.ToUpper(row.CC)] = row.Rate
		}
	}

	usdRates, err := triangulateUAH(uahQuotes)
	if err != nil {
		return domain.DailyRates{}, err
	}
	return domain.DailyRates{
		Date:         domain.Day(date),
		BaseCurrency: domain.InternalBase,
		Rates:        usdRates,
		Provider:     NBUName,
	}, nil
}

// triangulateUAH rebases a table of UAH-per-unit quotes onto the internal
// pivot. The quotes are inverse ("1 foreign = rate UAH"), so they are first
// inverted into a proper hryvnia-based table, then rebased with the shared
// primitive. UAH itself lands at the USD/UAH quote, USD at 1.0.
func triangulateUAH(uahQuotes map[string]float64) (map[string]float64, error) {
	uahBased := make(map[string]float64, len(uahQuotes)+1)
	uahBased["UAH"] = 1.0
	for code, perUnit := range uahQuotes {
		if code == "UAH" || perUnit <= 0 {
			continue
		}
		uahBased[code] = 1 / perUnit
	}

	usdRates, err := domain.RebaseRates(uahBased, "UAH", domain.InternalBase)
	if err != nil {
		return nil, fmt.Errorf("%w: nbu: no %s/UAH quote", apperrors.ErrParse, domain.InternalBase)
	}
	usdRates[domain.InternalBase] = 1.0
	return usdRates, nil
}
