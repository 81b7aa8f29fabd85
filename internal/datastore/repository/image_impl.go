package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

type imageRepository struct {
	db  *gorm.DB
	rec opRecorder
}

// NewImageRepository creates an image repository backed by the given
// database handle. The metrics argument may be nil.
func NewImageRepository(db *gorm.DB, m *metrics.DatastoreMetrics) ImageRepository {
	return &imageRepository{db: db, rec: opRecorder{m: m}}
}

func (r *imageRepository) GetOrCreate(ctx context.Context, sha1 string, uploaderID int64, priority int) (result *entities.Image, err error) {
	defer r.rec.observe("image_get_or_create", tableImages, time.Now(), &err)
	if sha1 == "" {
		return nil, errors.New(ErrInvalidInput).
			Category(errors.CategoryValidation).
			Context("field", "image_sha1").
			Build()
	}

	var image entities.Image
	err = r.db.WithContext(ctx).Where("sha1 = ?", sha1).First(&image).Error
	if err == nil {
		return &image, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "image_lookup").
			Context("image_sha1", sha1).
			Build()
	}

	image = entities.Image{SHA1: sha1, UploaderID: uploaderID, Priority: priority}
	if err := r.db.WithContext(ctx).Create(&image).Error; err != nil {
		var existing entities.Image
		if refetchErr := r.db.WithContext(ctx).Where("sha1 = ?", sha1).First(&existing).Error; refetchErr == nil {
			return &existing, nil
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "image_create").
			Context("image_sha1", sha1).
			Build()
	}
	return &image, nil
}

func (r *imageRepository) GetBySHA1(ctx context.Context, sha1 string) (*entities.Image, error) {
	var image entities.Image
	err := r.db.WithContext(ctx).Where("sha1 = ?", sha1).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "image_lookup").
			Context("image_sha1", sha1).
			Build()
	}
	return &image, nil
}

func (r *imageRepository) SetPriority(ctx context.Context, sha1 string, priority int) (err error) {
	defer r.rec.observe("image_set_priority", tableImages, time.Now(), &err)
	result := r.db.WithContext(ctx).
		Model(&entities.Image{}).
		Where("sha1 = ?", sha1).
		Update("priority", priority)
	if result.Error != nil {
		return errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "image_set_priority").
			Context("image_sha1", sha1).
			Build()
	}
	if result.RowsAffected == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *imageRepository) Exists(ctx context.Context, sha1 string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Image{}).
		Where("sha1 = ?", sha1).
		Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "image_exists").
			Context("image_sha1", sha1).
			Build()
	}
	return count > 0, nil
}
