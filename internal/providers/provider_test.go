package providers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	"github.com/ratewatch/currency-rates-service/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider implements Provider with overridable behavior per method.
type stubProvider struct {
	name      string
	fetchDate func(ctx context.Context, date time.Time) (domain.DailyRates, error)
}

func (s *stubProvider) Name() string        { return s.name }
func (s *stubProvider) Description() string { return "stub" }

func (s *stubProvider) SupportedCurrencies(context.Context) ([]domain.Currency, error) {
	return nil, nil
}

func (s *stubProvider) FetchLatest(context.Context) (domain.DailyRates, error) {
	return domain.DailyRates{}, nil
}

func (s *stubProvider) FetchDate(ctx context.Context, date time.Time) (domain.DailyRates, error) {
	if s.fetchDate != nil {
		return s.fetchDate(ctx, date)
	}
	return domain.DailyRates{}, nil
}

func (s *stubProvider) FetchRange(context.Context, time.Time, time.Time) ([]domain.DailyRates, error) {
	return nil, nil
}

func (s *stubProvider) FetchFullHistory(context.Context) ([]domain.DailyRates, error) {
	return nil, nil
}

func TestRegistry_PreservesRegistrationOrder(t *testing.T) {
	reg := providers.NewRegistry(
		&stubProvider{name: "ecb"},
		&stubProvider{name: "nbu"},
	)

	assert.Equal(t, []string{"ecb", "nbu"}, reg.Names())
	require.Len(t, reg.All(), 2)
	assert.Equal(t, "ecb", reg.All()[0].Name())
}

func TestRegistry_Get(t *testing.T) {
	reg := providers.NewRegistry(&stubProvider{name: "ecb"})

	p, ok := reg.Get("ecb")
	require.True(t, ok)
	assert.Equal(t, "ecb", p.Name())

	_, ok = reg.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_ReplacesDuplicateName(t *testing.T) {
	first := &stubProvider{name: "ecb"}
	second := &stubProvider{name: "ecb"}
	reg := providers.NewRegistry(first, &stubProvider{name: "nbu"}, second)

	assert.Equal(t, []string{"ecb", "nbu"}, reg.Names())
	p, ok := reg.Get("ecb")
	require.True(t, ok)
	assert.Same(t, second, p)
}

func TestFetchRangeByDay_SkipsFailedDays(t *testing.T) {
	bad := day(2020, time.January, 2)
	stub := &stubProvider{
		name: "stub",
		fetchDate: func(_ context.Context, date time.Time) (domain.DailyRates, error) {
			if date.Equal(bad) {
				return domain.DailyRates{}, errors.New("boom")
			}
			return domain.DailyRates{
				Date:         date,
				BaseCurrency: domain.InternalBase,
				Rates:        map[string]float64{"USD": 1.0},
				Provider:     "stub",
			}, nil
		},
	}

	got, err := providers.FetchRangeByDay(context.Background(), stub,
		day(2020, time.January, 1), day(2020, time.January, 3), discardLogger())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(2020, time.January, 1), got[0].Date)
	assert.Equal(t, day(2020, time.January, 3), got[1].Date)
}

func TestFetchRangeByDay_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubProvider{name: "stub"}
	_, err := providers.FetchRangeByDay(ctx, stub,
		day(2020, time.January, 1), day(2020, time.January, 3), discardLogger())

	assert.ErrorIs(t, err, context.Canceled)
}
