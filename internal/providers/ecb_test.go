package providers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	"github.com/ratewatch/currency-rates-service/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ecbDailyXML = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<gesmes:Sender>
		<gesmes:name>European Central Bank</gesmes:name>
	</gesmes:Sender>
	<Cube>
		<Cube time="2020-01-03">
			<Cube currency="USD" rate="1.0586"/>
			<Cube currency="JPY" rate="158.11"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

const ecbTwoDayXML = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<Cube>
		<Cube time="2020-01-06">
			<Cube currency="USD" rate="1.0601"/>
			<Cube currency="JPY" rate="158.43"/>
		</Cube>
		<Cube time="2020-01-03">
			<Cube currency="USD" rate="1.0586"/>
			<Cube currency="JPY" rate="158.11"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseECBHistory_TriangulatesToPivot(t *testing.T) {
	days, err := providers.ParseECBHistory([]byte(ecbDailyXML), discardLogger())

	require.NoError(t, err)
	require.Len(t, days, 1)

	got := days[0]
	assert.Equal(t, day(2020, time.January, 3), got.Date)
	assert.Equal(t, domain.InternalBase, got.BaseCurrency)
	assert.Equal(t, providers.ECBName, got.Provider)
	assert.Equal(t, 1.0, got.Rates["USD"])
	assert.InDelta(t, 0.944644, got.Rates["EUR"], 1e-4)
	assert.InDelta(t, 149.357642, got.Rates["JPY"], 1e-4)
}

func TestParseECBHistory_SkipsDaysWithoutPivotQuote(t *testing.T) {
	const xmlMissingUSD = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<Cube>
		<Cube time="2020-01-03">
			<Cube currency="USD" rate="1.0586"/>
		</Cube>
		<Cube time="2020-01-06">
			<Cube currency="JPY" rate="158.43"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

	days, err := providers.ParseECBHistory([]byte(xmlMissingUSD), discardLogger())

	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, day(2020, time.January, 3), days[0].Date)
}

func TestParseECBHistory_MalformedXML(t *testing.T) {
	_, err := providers.ParseECBHistory([]byte("not xml at all <"), discardLogger())
	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func newECBTestServer(t *testing.T, daily, last90, history string, hits map[string]*int) (*httptest.Server, *providers.ECB) {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(path, payload string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			if counter, ok := hits[path]; ok {
				*counter++
			}
			if payload == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(payload))
		})
	}
	serve("/daily.xml", daily)
	serve("/90d.xml", last90)
	serve("/hist.xml", history)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ecb := providers.NewECB(srv.Client(), discardLogger(),
		providers.WithECBEndpoints(srv.URL+"/daily.xml", srv.URL+"/90d.xml", srv.URL+"/hist.xml"),
		providers.WithECBClock(func() time.Time { return day(2020, time.January, 6) }),
	)
	return srv, ecb
}

func TestECB_FetchLatest_ReturnsPublishedDay(t *testing.T) {
	_, ecb := newECBTestServer(t, ecbDailyXML, "", "", nil)

	got, err := ecb.FetchLatest(context.Background())

	require.NoError(t, err)
	// Friday is the last publication; the gap-filler pads the weekend but
	// the published day itself comes first.
	assert.Equal(t, day(2020, time.January, 3), got.Date)
	assert.InDelta(t, 0.944644, got.Rates["EUR"], 1e-4)
}

func TestECB_FetchDate_WeekendCarriesFriday(t *testing.T) {
	_, ecb := newECBTestServer(t, "", ecbTwoDayXML, "", nil)

	got, err := ecb.FetchDate(context.Background(), day(2020, time.January, 4))

	require.NoError(t, err)
	assert.Equal(t, day(2020, time.January, 4), got.Date)
	assert.InDelta(t, 0.944644, got.Rates["EUR"], 1e-4, "Saturday carries Friday's table")
	assert.Equal(t, providers.ECBName, got.Provider)
}

func TestECB_FetchDate_BeforeFirstPublication(t *testing.T) {
	_, ecb := newECBTestServer(t, "", ecbTwoDayXML, "", nil)

	_, err := ecb.FetchDate(context.Background(), day(2020, time.January, 1))

	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestECB_FetchRange_PicksFeedByWindowStart(t *testing.T) {
	last90Hits, historyHits := 0, 0
	hits := map[string]*int{"/90d.xml": &last90Hits, "/hist.xml": &historyHits}
	_, ecb := newECBTestServer(t, "", ecbTwoDayXML, ecbTwoDayXML, hits)

	// Start within the last 90 days: the rolling feed suffices.
	_, err := ecb.FetchRange(context.Background(), day(2020, time.January, 3), day(2020, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, last90Hits)
	assert.Equal(t, 0, historyHits)

	// Start beyond the rolling window: fall back to the archive.
	_, err = ecb.FetchRange(context.Background(), day(2019, time.June, 3), day(2019, time.June, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, last90Hits)
	assert.Equal(t, 1, historyHits)
}

func TestECB_FetchRange_FiltersToWindow(t *testing.T) {
	_, ecb := newECBTestServer(t, "", ecbTwoDayXML, "", nil)

	got, err := ecb.FetchRange(context.Background(), day(2020, time.January, 4), day(2020, time.January, 5))

	require.NoError(t, err)
	require.Len(t, got, 2, "only the weekend inside the window")
	assert.Equal(t, day(2020, time.January, 4), got[0].Date)
	assert.Equal(t, day(2020, time.January, 5), got[1].Date)
	assert.InDelta(t, 0.944644, got[1].Rates["EUR"], 1e-4)
}

func TestECB_FetchLatest_UpstreamFailure(t *testing.T) {
	_, ecb := newECBTestServer(t, "", "", "", nil) // daily serves 500

	_, err := ecb.FetchLatest(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrTransport)
}
