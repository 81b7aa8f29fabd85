package repository

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

const (
	providerCacheTTL     = 30 * time.Minute
	providerCacheCleanup = 10 * time.Minute
)

type providerRepository struct {
	db  *gorm.DB
	rec opRecorder
	// cache maps provider name to *entities.Provider. Providers are
	// append-only so a cached row never goes stale.
	cache *gocache.Cache
}

// NewProviderRepository creates a provider repository backed by the given
// database handle. The metrics argument may be nil.
func NewProviderRepository(db *gorm.DB, m *metrics.DatastoreMetrics) ProviderRepository {
	return &providerRepository{
		db:    db,
		rec:   opRecorder{m: m},
		cache: gocache.New(providerCacheTTL, providerCacheCleanup),
	}
}

func (r *providerRepository) GetOrCreate(ctx context.Context, name string) (result *entities.Provider, err error) {
	defer r.rec.observe("provider_get_or_create", tableProviders, time.Now(), &err)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(ErrInvalidInput).
			Category(errors.CategoryValidation).
			Context("field", "provider_name").
			Build()
	}

	if cached, ok := r.cache.Get(name); ok {
		return cached.(*entities.Provider), nil
	}

	var provider entities.Provider
	err = r.db.WithContext(ctx).Where("name = ?", name).First(&provider).Error
	if err == nil {
		r.cache.SetDefault(name, &provider)
		return &provider, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "provider_lookup").
			Context("provider", name).
			Build()
	}

	provider = entities.Provider{Name: name}
	if err := r.db.WithContext(ctx).Create(&provider).Error; err != nil {
		// A concurrent caller may have created the row between our lookup
		// and insert. Refetch before reporting failure.
		var existing entities.Provider
		if refetchErr := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; refetchErr == nil {
			r.cache.SetDefault(name, &existing)
			return &existing, nil
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "provider_create").
			Context("provider", name).
			Build()
	}

	r.cache.SetDefault(name, &provider)
	return &provider, nil
}

func (r *providerRepository) GetByName(ctx context.Context, name string) (*entities.Provider, error) {
	if cached, ok := r.cache.Get(name); ok {
		return cached.(*entities.Provider), nil
	}

	var provider entities.Provider
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "provider_lookup").
			Context("provider", name).
			Build()
	}

	r.cache.SetDefault(name, &provider)
	return &provider, nil
}

func (r *providerRepository) GetByID(ctx context.Context, id uint) (*entities.Provider, error) {
	var provider entities.Provider
	err := r.db.WithContext(ctx).First(&provider, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "provider_lookup").
			Context("provider_id", id).
			Build()
	}
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context) ([]entities.Provider, error) {
	var providers []entities.Provider
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&providers).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "provider_list").
			Build()
	}
	return providers, nil
}
