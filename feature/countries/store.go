package countries

import (
	"strings"
	"time"

	"country-cache/feature/countries/models"

	"gorm.io/gorm"
)

// Store wraps the countries table. Write operations take the transaction
// they must run in; read projections use the store's own handle.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the countries table schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.Country{})
}

// FindIDByName returns the surrogate id of the row whose name matches
// case-insensitively, or 0 when no such row exists.
func (s *Store) FindIDByName(tx *gorm.DB, name string) (uint, error) {
	var ids []uint
	err := tx.Model(&models.Country{}).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

// Upsert inserts the record when its ID is zero, otherwise overwrites all
// fields of the row at that ID (merge semantics).
func (s *Store) Upsert(tx *gorm.DB, c *models.Country) error {
	return tx.Save(c).Error
}

// DeleteMissing removes rows whose lower-cased name is not in keep.
// Returns the number of rows deleted.
func (s *Store) DeleteMissing(tx *gorm.DB, keep map[string]struct{}) (int64, error) {
	var rows []models.Country
	if err := tx.Select("id", "name").Find(&rows).Error; err != nil {
		return 0, err
	}

	var ids []uint
	for _, r := range rows {
		if _, ok := keep[strings.ToLower(r.Name)]; !ok {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := tx.Delete(&models.Country{}, ids)
	return res.RowsAffected, res.Error
}

// Count returns the number of cached countries.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.Country{}).Count(&n).Error
	return n, err
}

// LastRefreshedAt returns the most recent refresh timestamp across all rows,
// or nil when the cache is empty. The sqlite driver loses the declared column
// type on aggregate expressions, so this selects the newest row's column
// instead of MAX().
func (s *Store) LastRefreshedAt() (*time.Time, error) {
	var times []time.Time
	err := s.db.Model(&models.Country{}).
		Order("last_refreshed_at DESC").
		Limit(1).
		Pluck("last_refreshed_at", &times).Error
	if err != nil || len(times) == 0 {
		return nil, err
	}
	t := times[0]
	return &t, nil
}

// List returns all cached countries ordered by name, optionally filtered by
// region (case-insensitive).
func (s *Store) List(region string) ([]models.Country, error) {
	q := s.db.Model(&models.Country{}).Order("name")
	if region != "" {
		q = q.Where("LOWER(region) = ?", strings.ToLower(region))
	}
	var rows []models.Country
	err := q.Find(&rows).Error
	return rows, err
}

// GetByName returns the country whose name matches case-insensitively.
// Returns gorm.ErrRecordNotFound when absent.
func (s *Store) GetByName(name string) (*models.Country, error) {
	var c models.Country
	err := s.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TopByGDP returns up to limit countries with a positive GDP estimate,
// highest first.
func (s *Store) TopByGDP(limit int) ([]models.Country, error) {
	var rows []models.Country
	err := s.db.Where("estimated_gdp > 0").
		Order("estimated_gdp DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
