package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

type mappingRepository struct {
	db  *gorm.DB
	rec opRecorder
}

// NewMappingRepository creates a concept mapping repository backed by the
// given database handle. The metrics argument may be nil.
func NewMappingRepository(db *gorm.DB, m *metrics.DatastoreMetrics) MappingRepository {
	return &mappingRepository{db: db, rec: opRecorder{m: m}}
}

func (r *mappingRepository) ReplaceAll(ctx context.Context, mappings []entities.ConceptMapping) (err error) {
	defer r.rec.observe("mapping_replace_all", tableConceptMappings, time.Now(), &err)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + tableConceptMappings).Error; err != nil {
			return err
		}
		if len(mappings) == 0 {
			return nil
		}
		return tx.CreateInBatches(mappings, insertBatchSize).Error
	})
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "mapping_replace_all").
			Context("row_count", len(mappings)).
			Build()
	}
	return nil
}

func (r *mappingRepository) Resolve(ctx context.Context, providerConceptID string) ([]string, error) {
	var canonicalIDs []string
	err := r.db.WithContext(ctx).
		Model(&entities.ConceptMapping{}).
		Where("provider_concept_id = ?", providerConceptID).
		Order("id ASC").
		Pluck("canonical_id", &canonicalIDs).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "mapping_resolve").
			Context("provider_concept_id", providerConceptID).
			Build()
	}
	return canonicalIDs, nil
}

func (r *mappingRepository) ResolveBatch(ctx context.Context, providerConceptIDs []string) (resolved map[string][]string, err error) {
	defer r.rec.observe("mapping_resolve_batch", tableConceptMappings, time.Now(), &err)
	if len(providerConceptIDs) == 0 {
		return map[string][]string{}, nil
	}

	var rows []entities.ConceptMapping
	err = r.db.WithContext(ctx).
		Where("provider_concept_id IN ?", providerConceptIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "mapping_resolve_batch").
			Context("id_count", len(providerConceptIDs)).
			Build()
	}

	resolved = make(map[string][]string)
	for _, row := range rows {
		resolved[row.ProviderConceptID] = append(resolved[row.ProviderConceptID], row.CanonicalID)
	}
	return resolved, nil
}

func (r *mappingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.ConceptMapping{}).Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "mapping_count").
			Build()
	}
	return count, nil
}
