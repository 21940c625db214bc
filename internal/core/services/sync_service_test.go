package services_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portssvc "github.com/ratewatch/currency-rates-service/internal/core/ports/services"
	"github.com/ratewatch/currency-rates-service/internal/core/services"
	"github.com/ratewatch/currency-rates-service/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func errorStatus(status string) bool {
	return strings.HasPrefix(status, "error: ")
}

// --- Test Suite ---
type SyncServiceTestSuite struct {
	suite.Suite
	mockRepo *MockRepositoryProvider
	mockECB  *MockProvider
	mockNBU  *MockProvider
	service  portssvc.SyncSvcFacade
	today    time.Time
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockRepositoryProvider)
	suite.mockECB = &MockProvider{name: "ecb"}
	suite.mockNBU = &MockProvider{name: "nbu"}
	suite.today = day(2020, time.January, 6)

	registry := providers.NewRegistry(suite.mockECB, suite.mockNBU)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewSyncService(suite.mockRepo, registry, logger,
		services.WithSyncClock(func() time.Time { return suite.today }))
}

// --- Test Cases ---

func (suite *SyncServiceTestSuite) TestSyncProvider_FirstSyncFetchesFullHistory() {
	ctx := context.Background()
	history := []domain.DailyRates{{
		Date:         day(2020, time.January, 3),
		BaseCurrency: domain.InternalBase,
		Rates:        map[string]float64{"EUR": 0.944644, "USD": 1.0},
		Provider:     "ecb",
	}}
	catalog := []domain.Currency{{Code: "EUR", Name: "Euro"}}

	suite.mockRepo.On("GetLatestDate", ctx, "ecb").Return(nil, nil).Once()
	suite.mockECB.On("FetchFullHistory", ctx).Return(history, nil).Once()
	suite.mockRepo.On("StoreDailyRatesBatch", ctx, history).Return(1, nil).Once()
	suite.mockECB.On("SupportedCurrencies", ctx).Return(catalog, nil).Once()
	suite.mockRepo.On("StoreCurrencies", ctx, "ecb", catalog).Return(nil).Once()
	suite.mockRepo.On("LogSync", ctx, "ecb", 1, domain.SyncStatusSuccess).Return(nil).Once()

	count, err := suite.service.SyncProvider(ctx, "ecb")

	suite.Require().NoError(err)
	suite.Equal(1, count)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockECB.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncProvider_UpToDateIsNoOp() {
	ctx := context.Background()
	last := suite.today
	suite.mockRepo.On("GetLatestDate", ctx, "ecb").Return(&last, nil).Once()
	suite.mockRepo.On("LogSync", ctx, "ecb", 0, domain.SyncStatusSuccess).Return(nil).Once()

	count, err := suite.service.SyncProvider(ctx, "ecb")

	suite.Require().NoError(err)
	suite.Equal(0, count)
	suite.mockECB.AssertNotCalled(suite.T(), "FetchFullHistory", mock.Anything)
	suite.mockECB.AssertNotCalled(suite.T(), "FetchRange", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncProvider_IncrementalWindowFromLastStoredDay() {
	ctx := context.Background()
	last := day(2020, time.January, 3)
	fetched := []domain.DailyRates{
		{Date: day(2020, time.January, 3), BaseCurrency: domain.InternalBase, Rates: map[string]float64{"EUR": 0.944644}, Provider: "ecb"},
		{Date: day(2020, time.January, 6), BaseCurrency: domain.InternalBase, Rates: map[string]float64{"EUR": 0.946}, Provider: "ecb"},
	}

	suite.mockRepo.On("GetLatestDate", ctx, "ecb").Return(&last, nil).Once()
	// The window deliberately re-fetches the last stored day.
	suite.mockECB.On("FetchRange", ctx, last, suite.today).Return(fetched, nil).Once()
	suite.mockRepo.On("StoreDailyRatesBatch", ctx, fetched).Return(2, nil).Once()
	suite.mockECB.On("SupportedCurrencies", ctx).Return([]domain.Currency{}, nil).Once()
	suite.mockRepo.On("StoreCurrencies", ctx, "ecb", mock.Anything).Return(nil).Once()
	suite.mockRepo.On("LogSync", ctx, "ecb", 2, domain.SyncStatusSuccess).Return(nil).Once()

	count, err := suite.service.SyncProvider(ctx, "ecb")

	suite.Require().NoError(err)
	suite.Equal(2, count)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockECB.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncProvider_UnknownProvider() {
	ctx := context.Background()

	_, err := suite.service.SyncProvider(ctx, "boe")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnknownProvider)
	suite.mockRepo.AssertNotCalled(suite.T(), "LogSync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestSyncProvider_FetchFailureLogsErrorRow() {
	ctx := context.Background()
	suite.mockRepo.On("GetLatestDate", ctx, "ecb").Return(nil, nil).Once()
	suite.mockECB.On("FetchFullHistory", ctx).
		Return(nil, apperrors.ErrTransport).Once()
	suite.mockRepo.On("LogSync", ctx, "ecb", 0, mock.MatchedBy(errorStatus)).Return(nil).Once()

	count, err := suite.service.SyncProvider(ctx, "ecb")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrTransport)
	suite.Equal(0, count)
	suite.mockRepo.AssertNotCalled(suite.T(), "StoreDailyRatesBatch", mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncProvider_CurrencyRefreshFailureIsNotFatal() {
	ctx := context.Background()
	history := []domain.DailyRates{{
		Date:         day(2020, time.January, 3),
		BaseCurrency: domain.InternalBase,
		Rates:        map[string]float64{"UAH": 42.30},
		Provider:     "nbu",
	}}

	suite.mockRepo.On("GetLatestDate", ctx, "nbu").Return(nil, nil).Once()
	suite.mockNBU.On("FetchFullHistory", ctx).Return(history, nil).Once()
	suite.mockRepo.On("StoreDailyRatesBatch", ctx, history).Return(1, nil).Once()
	suite.mockNBU.On("SupportedCurrencies", ctx).Return(nil, assert.AnError).Once()
	suite.mockRepo.On("LogSync", ctx, "nbu", 1, domain.SyncStatusSuccess).Return(nil).Once()

	count, err := suite.service.SyncProvider(ctx, "nbu")

	suite.Require().NoError(err)
	suite.Equal(1, count)
	suite.mockRepo.AssertNotCalled(suite.T(), "StoreCurrencies", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncProvider_CoalescesConcurrentRuns() {
	ctx := context.Background()
	release := make(chan time.Time)
	history := []domain.DailyRates{{
		Date:         day(2020, time.January, 3),
		BaseCurrency: domain.InternalBase,
		Rates:        map[string]float64{"EUR": 0.944644},
		Provider:     "ecb",
	}}

	suite.mockRepo.On("GetLatestDate", ctx, "ecb").Return(nil, nil).Once()
	suite.mockECB.On("FetchFullHistory", ctx).WaitUntil(release).Return(history, nil).Once()
	suite.mockRepo.On("StoreDailyRatesBatch", ctx, history).Return(31, nil).Once()
	suite.mockECB.On("SupportedCurrencies", ctx).Return([]domain.Currency{}, nil).Once()
	suite.mockRepo.On("StoreCurrencies", ctx, "ecb", mock.Anything).Return(nil).Once()
	suite.mockRepo.On("LogSync", ctx, "ecb", 31, domain.SyncStatusSuccess).Return(nil).Once()

	const callers = 3
	var wg sync.WaitGroup
	counts := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts[i], errs[i] = suite.service.SyncProvider(ctx, "ecb")
		}()
	}
	// Let every caller join the in-flight run before releasing the fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		suite.NoError(errs[i])
		suite.Equal(31, counts[i])
	}
	suite.mockECB.AssertNumberOfCalls(suite.T(), "FetchFullHistory", 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncAll_IsolatesProviderFailures() {
	ctx := context.Background()
	ecbLast := suite.today

	suite.mockRepo.On("GetLatestDate", mock.Anything, "ecb").Return(&ecbLast, nil).Once()
	suite.mockRepo.On("LogSync", mock.Anything, "ecb", 0, domain.SyncStatusSuccess).Return(nil).Once()

	suite.mockRepo.On("GetLatestDate", mock.Anything, "nbu").Return(nil, nil).Once()
	suite.mockNBU.On("FetchFullHistory", mock.Anything).Return(nil, assert.AnError).Once()
	suite.mockRepo.On("LogSync", mock.Anything, "nbu", 0, mock.MatchedBy(errorStatus)).Return(nil).Once()

	outcomes := suite.service.SyncAll(ctx)

	suite.Require().Len(outcomes, 2)
	suite.Equal("ecb", outcomes[0].Provider)
	suite.NoError(outcomes[0].Err)
	suite.Equal(0, outcomes[0].Records)
	suite.Equal("nbu", outcomes[1].Provider)
	suite.Error(outcomes[1].Err)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNBU.AssertExpectations(suite.T())
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
