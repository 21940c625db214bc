package seed_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	"github.com/ratewatch/currency-rates-service/internal/seed"
	"github.com/ratewatch/currency-rates-service/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ecbSeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<Cube>
		<Cube time="2020-01-03">
			<Cube currency="USD" rate="1.0586"/>
			<Cube currency="JPY" rate="158.11"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

const nbuSeedJSON = `{
	"USD": [
		{"exchangedate":"03.01.2020","r030":840,"cc":"USD","units":1,"rate":42.30,"rate_per_unit":42.30}
	],
	"KZT": [
		{"exchangedate":"03.01.2020","r030":398,"cc":"KZT","units":100,"rate":11.10,"rate_per_unit":0.111}
	]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeSeedFiles drops both bundles into a temp dir and returns their paths.
func writeSeedFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	ecbPath := filepath.Join(dir, "ecb-full-hist.xml")
	require.NoError(t, os.WriteFile(ecbPath, []byte(ecbSeedXML), 0o644))

	nbuPath := filepath.Join(dir, "nbu-full-hist.json")
	require.NoError(t, os.WriteFile(nbuPath, []byte(nbuSeedJSON), 0o644))

	return ecbPath, nbuPath
}

func TestRun_SeedsBothProviders(t *testing.T) {
	repo := testutils.NewFakeRepository()
	ecbPath, nbuPath := writeSeedFiles(t)

	err := seed.Run(context.Background(), repo, ecbPath, nbuPath, discardLogger())

	require.NoError(t, err)

	// ECB day stores EUR and JPY, NBU day stores UAH and KZT. The shared
	// pivot row is never materialized.
	count, err := repo.GetRatesCount(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	date := time.Date(2020, time.January, 3, 0, 0, 0, 0, time.UTC)
	ecbTable, err := repo.GetRatesForDate(context.Background(), date, "ecb")
	require.NoError(t, err)
	assert.InDelta(t, 0.944644, ecbTable["EUR"], 1e-4)

	nbuTable, err := repo.GetRatesForDate(context.Background(), date, "nbu")
	require.NoError(t, err)
	assert.InDelta(t, 42.30, nbuTable["UAH"], 1e-9)

	assert.Equal(t, []string{domain.SyncStatusSeeded}, repo.SyncStatuses("ecb"))
	assert.Equal(t, []string{domain.SyncStatusSeeded}, repo.SyncStatuses("nbu"))
}

func TestRun_MissingFilesAreSkipped(t *testing.T) {
	repo := testutils.NewFakeRepository()
	dir := t.TempDir()

	err := seed.Run(context.Background(), repo,
		filepath.Join(dir, "no-ecb.xml"), filepath.Join(dir, "no-nbu.json"), discardLogger())

	require.NoError(t, err)

	count, err := repo.GetRatesCount(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, repo.SyncStatuses("ecb"))
	assert.Empty(t, repo.SyncStatuses("nbu"))
}

func TestRun_IsIdempotent(t *testing.T) {
	repo := testutils.NewFakeRepository()
	ecbPath, nbuPath := writeSeedFiles(t)

	require.NoError(t, seed.Run(context.Background(), repo, ecbPath, nbuPath, discardLogger()))
	first, err := repo.GetRatesCount(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, seed.Run(context.Background(), repo, ecbPath, nbuPath, discardLogger()))
	second, err := repo.GetRatesCount(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_MalformedSeedFileFails(t *testing.T) {
	repo := testutils.NewFakeRepository()
	dir := t.TempDir()
	ecbPath := filepath.Join(dir, "ecb-full-hist.xml")
	require.NoError(t, os.WriteFile(ecbPath, []byte("not xml at all"), 0o644))

	err := seed.Run(context.Background(), repo, ecbPath, filepath.Join(dir, "no-nbu.json"), discardLogger())

	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func TestSeedIfEmpty_SkipsPopulatedStore(t *testing.T) {
	repo := testutils.NewFakeRepository()
	ecbPath, nbuPath := writeSeedFiles(t)

	_, err := repo.StoreDailyRatesBatch(context.Background(), []domain.DailyRates{{
		Date:         time.Date(2019, time.June, 3, 0, 0, 0, 0, time.UTC),
		BaseCurrency: domain.InternalBase,
		Rates:        map[string]float64{"EUR": 0.9},
		Provider:     "ecb",
	}})
	require.NoError(t, err)

	require.NoError(t, seed.SeedIfEmpty(context.Background(), repo, ecbPath, nbuPath, discardLogger()))

	count, err := repo.GetRatesCount(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, repo.SyncStatuses("ecb"))
}
