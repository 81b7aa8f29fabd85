// Package datastore opens the backing database and aggregates the
// entity repositories behind a single handle.
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/datastore/repository"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/logging"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

// Store aggregates the entity repositories over a shared database
// connection. Transaction derives a Store whose repositories share one
// transaction.
type Store struct {
	Providers repository.ProviderRepository
	Images    repository.ImageRepository
	Labels    repository.LabelRepository
	Safety    repository.SafetyRepository
	Mappings  repository.MappingRepository

	db      *gorm.DB
	metrics *metrics.DatastoreMetrics
	log     *slog.Logger
}

// Open connects to the configured database, runs migrations and returns
// the repository aggregate.
func Open(settings *conf.DatabaseSettings) (*Store, error) {
	dialector, err := buildDialector(settings)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "database_open").
			Context("database_type", settings.Type).
			Build()
	}

	store := newStore(db, nil)
	if err := store.migrate(); err != nil {
		return nil, err
	}

	store.log.Info("database opened", "type", settings.Type)
	return store, nil
}

func buildDialector(settings *conf.DatabaseSettings) (gorm.Dialector, error) {
	switch settings.Type {
	case "sqlite":
		return sqlite.Open(settings.SQLite.Path), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			settings.MySQL.Username, settings.MySQL.Password,
			settings.MySQL.Host, settings.MySQL.Port, settings.MySQL.Database)
		return mysql.Open(dsn), nil
	default:
		return nil, errors.Newf("unsupported database type: %s", settings.Type).
			Category(errors.CategoryConfiguration).
			Context("database_type", settings.Type).
			Build()
	}
}

func newStore(db *gorm.DB, m *metrics.DatastoreMetrics) *Store {
	log := logging.ForService("datastore")
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		Providers: repository.NewProviderRepository(db, m),
		Images:    repository.NewImageRepository(db, m),
		Labels:    repository.NewLabelRepository(db, m),
		Safety:    repository.NewSafetyRepository(db, m),
		Mappings:  repository.NewMappingRepository(db, m),
		db:        db,
		metrics:   m,
		log:       log,
	}
}

// SetMetrics attaches datastore metrics to the store and its
// repositories. Call once before serving traffic.
func (s *Store) SetMetrics(m *metrics.DatastoreMetrics) {
	rebuilt := newStore(s.db, m)
	s.Providers = rebuilt.Providers
	s.Images = rebuilt.Images
	s.Labels = rebuilt.Labels
	s.Safety = rebuilt.Safety
	s.Mappings = rebuilt.Mappings
	s.metrics = m
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&entities.Provider{},
		&entities.Image{},
		&entities.Label{},
		&entities.SafetyAnnotation{},
		&entities.ConceptMapping{},
	)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "migrate").
			Build()
	}
	return nil
}

// Transaction runs fn inside a single database transaction. The Store
// passed to fn shares the transaction across all repositories; returning
// an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, s.metrics))
	})
	if s.metrics != nil {
		status := "committed"
		if err != nil {
			status = "rollback"
		}
		s.metrics.RecordTransaction(status)
		s.metrics.RecordTransactionDuration("store", time.Since(start).Seconds())
	}
	return err
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies connectivity within the given timeout.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
