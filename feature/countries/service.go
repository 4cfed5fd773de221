package countries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"country-cache/core/storage"
	"country-cache/feature/countries/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrRefreshInProgress is returned when exclusive refresh is enabled and a
// run is already in flight.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Fetcher retrieves the raw country list and the rate mapping.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.CountryEntry, map[string]float64, error)
}

// Service orchestrates the refresh pipeline: fetch both feeds, reconcile
// every entry against the store, and commit the run as one transaction.
type Service struct {
	db         *gorm.DB
	store      *Store
	gateway    Fetcher
	snapshots  storage.Client // nil when snapshot export is disabled
	bucket     string
	logger     *zap.Logger
	cfg        Config
	multiplier Multiplier

	refreshMu sync.Mutex

	// summary projection cache, stampede-protected
	summaryMu    sync.RWMutex
	summary      *models.Summary
	summaryBuilt time.Time
	summarySF    singleflight.Group
}

// NewService creates a countries service. snapshots may be nil to disable
// summary snapshot export.
func NewService(db *gorm.DB, gateway Fetcher, snapshots storage.Client, bucket string, logger *zap.Logger, cfg Config) *Service {
	return &Service{
		db:         db,
		store:      NewStore(db),
		gateway:    gateway,
		snapshots:  snapshots,
		bucket:     bucket,
		logger:     logger,
		cfg:        cfg,
		multiplier: NewMultiplier(cfg.GDPMultiplierMin, cfg.GDPMultiplierMax),
	}
}

// Store exposes the underlying store for migration and read projections.
func (s *Service) Store() *Store {
	return s.store
}

// Refresh runs one full refresh: concurrent fetch of both feeds, sequential
// reconcile-and-upsert per entry, single commit. The whole run rolls back on
// any failure. Returns the number of entries processed.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.cfg.ExclusiveRefresh {
		if !s.refreshMu.TryLock() {
			return 0, ErrRefreshInProgress
		}
		defer s.refreshMu.Unlock()
	}

	// One timestamp for the whole run; rows untouched by this run keep
	// their previous one.
	now := time.Now().UTC()

	entries, rates, err := s.gateway.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			rec, err := BuildRecord(entry, rates, now, s.multiplier)
			if err != nil {
				return err
			}

			// Resolve identity before each individual upsert so two
			// entries normalizing to the same name within one run hit
			// the same row instead of the uniqueness constraint.
			id, err := s.store.FindIDByName(tx, rec.Name)
			if err != nil {
				return err
			}
			rec.ID = id

			if err := s.store.Upsert(tx, rec); err != nil {
				return err
			}
			seen[strings.ToLower(rec.Name)] = struct{}{}
			processed++
		}

		if s.cfg.PruneMissing {
			pruned, err := s.store.DeleteMissing(tx, seen)
			if err != nil {
				return err
			}
			if pruned > 0 {
				s.logger.Info("Pruned countries missing from feed", zap.Int64("count", pruned))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateSummary()

	if s.snapshots != nil {
		// Snapshot export is a post-commit side effect; the run already
		// succeeded, so a failure here is only logged.
		if err := s.exportSnapshot(ctx); err != nil {
			s.logger.Warn("Summary snapshot export failed", zap.Error(err))
		}
	}

	s.logger.Info("Refresh complete", zap.Int("processed", processed))
	return processed, nil
}

// Summary returns the cached-countries summary projection. With a configured
// TTL the projection is cached and rebuilt through singleflight to prevent
// stampedes; a TTL of zero builds it on every call.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	ttl := time.Duration(s.cfg.SummaryCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		return s.buildSummary()
	}

	s.summaryMu.RLock()
	cached, built := s.summary, s.summaryBuilt
	s.summaryMu.RUnlock()
	if cached != nil && time.Since(built) < ttl {
		return cached, nil
	}

	v, err, _ := s.summarySF.Do("summary", func() (any, error) {
		// Double-check after acquiring the singleflight slot
		s.summaryMu.RLock()
		cached, built := s.summary, s.summaryBuilt
		s.summaryMu.RUnlock()
		if cached != nil && time.Since(built) < ttl {
			return cached, nil
		}

		fresh, err := s.buildSummary()
		if err != nil {
			return nil, err
		}

		s.summaryMu.Lock()
		s.summary = fresh
		s.summaryBuilt = time.Now()
		s.summaryMu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Summary), nil
}

// List returns cached countries, optionally filtered by region.
func (s *Service) List(region string) ([]models.Country, error) {
	return s.store.List(region)
}

// GetByName returns one cached country by case-insensitive name.
func (s *Service) GetByName(name string) (*models.Country, error) {
	return s.store.GetByName(name)
}

func (s *Service) buildSummary() (*models.Summary, error) {
	total, err := s.store.Count()
	if err != nil {
		return nil, err
	}
	last, err := s.store.LastRefreshedAt()
	if err != nil {
		return nil, err
	}
	top, err := s.store.TopByGDP(5)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		TotalCountries:  total,
		LastRefreshedAt: last,
		TopCountries:    make([]models.GDPEntry, 0, len(top)),
	}
	for _, c := range top {
		if c.EstimatedGDP == nil {
			continue
		}
		summary.TopCountries = append(summary.TopCountries, models.GDPEntry{
			Name:         c.Name,
			EstimatedGDP: *c.EstimatedGDP,
		})
	}
	return summary, nil
}

func (s *Service) invalidateSummary() {
	s.summaryMu.Lock()
	s.summary = nil
	s.summaryMu.Unlock()
}

// exportSnapshot writes the current summary as JSON to object storage.
func (s *Service) exportSnapshot(ctx context.Context) error {
	summary, err := s.buildSummary()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	exists, err := s.snapshots.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket check failed: %w", err)
	}
	if !exists {
		if err := s.snapshots.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("bucket create failed: %w", err)
		}
	}

	_, err = s.snapshots.PutObject(ctx, s.bucket, s.cfg.SnapshotObject,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("snapshot upload failed: %w", err)
	}
	return nil
}
