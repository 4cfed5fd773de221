package countries

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"country-cache/core/storage/mocks"
	"country-cache/feature/countries/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubFetcher returns canned feed data or a canned error.
type stubFetcher struct {
	entries []models.CountryEntry
	rates   map[string]float64
	err     error
}

func (f *stubFetcher) Fetch(ctx context.Context) ([]models.CountryEntry, map[string]float64, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.entries, f.rates, nil
}

// blockingFetcher signals when a fetch starts and waits for release.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context) ([]models.CountryEntry, map[string]float64, error) {
	close(f.started)
	<-f.release
	return nil, map[string]float64{}, nil
}

func newTestService(t *testing.T, db *gorm.DB, fetcher Fetcher, cfg Config) *Service {
	if cfg.GDPMultiplierMin == 0 {
		cfg.GDPMultiplierMin = 1000
	}
	if cfg.GDPMultiplierMax == 0 {
		cfg.GDPMultiplierMax = 2000
	}
	return NewService(db, fetcher, nil, "", zap.NewNop(), cfg)
}

func TestService_Refresh(t *testing.T) {
	t.Run("Processes All Entries", func(t *testing.T) {
		db := setupTestDB(t)
		fetcher := &stubFetcher{
			entries: []models.CountryEntry{
				{Name: "Italy", Capital: "Rome", Population: 100, Currencies: []models.Currency{{Code: "EUR"}}},
				{Name: "Nigeria", Population: 200, Currencies: []models.Currency{{Code: "NGN"}}},
				{Name: "Atlantis"},
			},
			rates: map[string]float64{"EUR": 0.9, "NGN": 1600},
		}
		svc := newTestService(t, db, fetcher, Config{})

		processed, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, processed)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		italy, err := svc.GetByName("italy")
		require.NoError(t, err)
		assert.Equal(t, "Italy", italy.Name)
		require.NotNil(t, italy.CurrencyCode)
		assert.Equal(t, "EUR", *italy.CurrencyCode)
		require.NotNil(t, italy.EstimatedGDP)
		assert.GreaterOrEqual(t, *italy.EstimatedGDP, 100*1000/0.9)
		assert.LessOrEqual(t, *italy.EstimatedGDP, 100*2000/0.9)

		atlantis, err := svc.GetByName("Atlantis")
		require.NoError(t, err)
		require.NotNil(t, atlantis.EstimatedGDP)
		assert.Equal(t, 0.0, *atlantis.EstimatedGDP)
		assert.Nil(t, atlantis.ExchangeRate)
	})

	t.Run("Idempotent Across Casing", func(t *testing.T) {
		db := setupTestDB(t)
		fetcher := &stubFetcher{
			entries: []models.CountryEntry{{Name: "france", Population: 100}},
			rates:   map[string]float64{},
		}
		svc := newTestService(t, db, fetcher, Config{})

		processed, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		first, err := svc.GetByName("France")
		require.NoError(t, err)

		// Second run with different casing must hit the same row
		fetcher.entries = []models.CountryEntry{{Name: "FRANCE", Population: 150}}
		processed, err = svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		second, err := svc.GetByName("france")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "France", second.Name)
		assert.Equal(t, int64(150), second.Population)
	})

	t.Run("Duplicate Names Within One Run", func(t *testing.T) {
		db := setupTestDB(t)
		fetcher := &stubFetcher{
			entries: []models.CountryEntry{
				{Name: "italy", Population: 100},
				{Name: "ITALY", Population: 200},
			},
			rates: map[string]float64{},
		}
		svc := newTestService(t, db, fetcher, Config{})

		processed, err := svc.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, processed)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		row, err := svc.GetByName("Italy")
		require.NoError(t, err)
		assert.Equal(t, int64(200), row.Population)
	})

	t.Run("Feed Failure Leaves Store Unchanged", func(t *testing.T) {
		db := setupTestDB(t)
		now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		seedCountry(t, db, "France", 100, now)

		fetcher := &stubFetcher{err: &FeedError{Feed: RateFeed, StatusCode: 504}}
		svc := newTestService(t, db, fetcher, Config{})

		_, err := svc.Refresh(context.Background())
		var feedErr *FeedError
		require.ErrorAs(t, err, &feedErr)
		assert.Equal(t, RateFeed, feedErr.Feed)

		france, err := svc.GetByName("France")
		require.NoError(t, err)
		assert.Equal(t, now, france.LastRefreshedAt.UTC())
	})

	t.Run("Mid Run Failure Rolls Back Everything", func(t *testing.T) {
		db := setupTestDB(t)
		fetcher := &stubFetcher{
			entries: []models.CountryEntry{
				{Name: "Italy", Population: 100},
				{Population: 50}, // missing name aborts the run
			},
			rates: map[string]float64{},
		}
		svc := newTestService(t, db, fetcher, Config{})

		_, err := svc.Refresh(context.Background())
		require.ErrorIs(t, err, ErrMissingName)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Zero(t, count, "partial run must not persist")
	})

	t.Run("Prune Disabled Keeps Absent Rows", func(t *testing.T) {
		db := setupTestDB(t)
		stale := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		seedCountry(t, db, "Oldland", 100, stale)

		fetcher := &stubFetcher{
			entries: []models.CountryEntry{{Name: "Italy", Population: 100}},
			rates:   map[string]float64{},
		}
		svc := newTestService(t, db, fetcher, Config{})

		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		// Untouched rows keep their previous timestamp
		old, err := svc.GetByName("Oldland")
		require.NoError(t, err)
		assert.Equal(t, stale, old.LastRefreshedAt.UTC())
	})

	t.Run("Prune Enabled Removes Absent Rows", func(t *testing.T) {
		db := setupTestDB(t)
		seedCountry(t, db, "Oldland", 100, time.Now().UTC())

		fetcher := &stubFetcher{
			entries: []models.CountryEntry{{Name: "Italy", Population: 100}},
			rates:   map[string]float64{},
		}
		svc := newTestService(t, db, fetcher, Config{PruneMissing: true})

		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)

		count, err := svc.Store().Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = svc.GetByName("Oldland")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Exclusive Refresh Rejects Overlap", func(t *testing.T) {
		db := setupTestDB(t)
		fetcher := &blockingFetcher{
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		svc := newTestService(t, db, fetcher, Config{ExclusiveRefresh: true})

		done := make(chan error, 1)
		go func() {
			_, err := svc.Refresh(context.Background())
			done <- err
		}()

		<-fetcher.started
		_, err := svc.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrRefreshInProgress)

		close(fetcher.release)
		require.NoError(t, <-done)
	})
}

func TestService_SnapshotExport(t *testing.T) {
	db := setupTestDB(t)
	fetcher := &stubFetcher{
		entries: []models.CountryEntry{
			{Name: "Italy", Population: 100, Currencies: []models.Currency{{Code: "EUR"}}},
		},
		rates: map[string]float64{"EUR": 0.9},
	}

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)

	var uploaded []byte
	client.On("PutObject", mock.Anything, "test-bucket", "cache/summary.json",
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			reader := args.Get(3).(io.Reader)
			uploaded, _ = io.ReadAll(reader)
		}).
		Return(minio.UploadInfo{}, nil)

	cfg := Config{
		GDPMultiplierMin: 1000,
		GDPMultiplierMax: 2000,
		SnapshotObject:   "cache/summary.json",
	}
	svc := NewService(db, fetcher, client, "test-bucket", zap.NewNop(), cfg)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	client.AssertExpectations(t)

	var snapshot models.Summary
	require.NoError(t, json.Unmarshal(uploaded, &snapshot))
	assert.Equal(t, int64(1), snapshot.TotalCountries)
	require.Len(t, snapshot.TopCountries, 1)
	assert.Equal(t, "Italy", snapshot.TopCountries[0].Name)
}

func TestService_Summary(t *testing.T) {
	t.Run("Empty Cache", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestService(t, db, &stubFetcher{}, Config{})

		summary, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.TotalCountries)
		assert.Nil(t, summary.LastRefreshedAt)
		assert.Empty(t, summary.TopCountries)
	})

	t.Run("Top Five Highest First", func(t *testing.T) {
		db := setupTestDB(t)
		now := time.Now().UTC()
		names := []string{"A", "B", "C", "D", "E", "F"}
		for i, name := range names {
			seedCountry(t, db, name, float64((i+1)*100), now)
		}
		svc := newTestService(t, db, &stubFetcher{}, Config{})

		summary, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(6), summary.TotalCountries)
		require.Len(t, summary.TopCountries, 5)
		assert.Equal(t, "F", summary.TopCountries[0].Name)
		assert.Equal(t, 600.0, summary.TopCountries[0].EstimatedGDP)
		assert.Equal(t, "B", summary.TopCountries[4].Name)
	})

	t.Run("Cached With TTL", func(t *testing.T) {
		db := setupTestDB(t)
		now := time.Now().UTC()
		seedCountry(t, db, "France", 100, now)
		svc := newTestService(t, db, &stubFetcher{}, Config{SummaryCacheTTLSeconds: 60})

		first, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.TotalCountries)

		// A direct write is invisible until the cache expires or a refresh
		// invalidates it
		seedCountry(t, db, "Italy", 200, now)
		second, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), second.TotalCountries)
	})
}
