package countries

import (
	"net/http"

	"country-cache/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature wires the countries service into the application.
type Feature struct {
	service *Service
}

// NewFeature creates the countries feature. snapshots may be nil when
// snapshot export is disabled.
func NewFeature(db *gorm.DB, snapshots storage.Client, bucket string, logger *zap.Logger, cfg Config) *Feature {
	gateway := NewGateway(&http.Client{}, cfg)
	return &Feature{
		service: NewService(db, gateway, snapshots, bucket, logger, cfg),
	}
}

// Service returns the underlying service, for CLI use.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return "countries"
}

// IsEnabled reports whether the feature should be loaded.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load migrates the schema and registers the routes.
func (f *Feature) Load(app fiber.Router) error {
	if err := f.service.Store().Migrate(); err != nil {
		return err
	}
	NewHandler(f.service).RegisterRoutes(app)
	return nil
}
