package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

type safetyRepository struct {
	db  *gorm.DB
	rec opRecorder
}

// NewSafetyRepository creates a safety annotation repository backed by
// the given database handle. The metrics argument may be nil.
func NewSafetyRepository(db *gorm.DB, m *metrics.DatastoreMetrics) SafetyRepository {
	return &safetyRepository{db: db, rec: opRecorder{m: m}}
}

func (r *safetyRepository) Upsert(ctx context.Context, annotation *entities.SafetyAnnotation) (err error) {
	defer r.rec.observe("safety_upsert", tableSafety, time.Now(), &err)
	if annotation == nil || annotation.ImageSHA1 == "" {
		return errors.New(ErrInvalidInput).
			Category(errors.CategoryValidation).
			Context("field", "safety_annotation").
			Build()
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "image_sha1"}},
			DoUpdates: clause.AssignmentColumns([]string{"adult", "spoof", "medical", "violence", "racy", "updated_at"}),
		}).
		Create(annotation).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "safety_upsert").
			Context("image_sha1", annotation.ImageSHA1).
			Build()
	}
	return nil
}

func (r *safetyRepository) GetByImage(ctx context.Context, sha1 string) (*entities.SafetyAnnotation, error) {
	var annotation entities.SafetyAnnotation
	err := r.db.WithContext(ctx).Where("image_sha1 = ?", sha1).First(&annotation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSafetyAnnotationNotFound
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "safety_get").
			Context("image_sha1", sha1).
			Build()
	}
	return &annotation, nil
}
