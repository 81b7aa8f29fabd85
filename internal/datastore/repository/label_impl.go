package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vireolabs/machinevision/internal/datastore/entities"
	"github.com/vireolabs/machinevision/internal/errors"
	"github.com/vireolabs/machinevision/internal/observability/metrics"
	"github.com/vireolabs/machinevision/internal/review"
)

// insertBatchSize bounds the row count per INSERT statement so large
// ingestion batches stay under driver placeholder limits.
const insertBatchSize = 200

type labelRepository struct {
	db  *gorm.DB
	rec opRecorder
}

// NewLabelRepository creates a label repository backed by the given
// database handle. The metrics argument may be nil.
func NewLabelRepository(db *gorm.DB, m *metrics.DatastoreMetrics) LabelRepository {
	return &labelRepository{db: db, rec: opRecorder{m: m}}
}

func (r *labelRepository) InsertBatch(ctx context.Context, labels []entities.Label) (inserted int64, err error) {
	defer r.rec.observe("label_insert_batch", tableLabels, time.Now(), &err)
	if len(labels) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(labels, insertBatchSize)
	if result.Error != nil {
		return 0, errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "label_insert_batch").
			Context("batch_size", len(labels)).
			Build()
	}
	return result.RowsAffected, nil
}

func (r *labelRepository) GetByImage(ctx context.Context, sha1 string) (result []entities.Label, err error) {
	defer r.rec.observe("label_get_by_image", tableLabels, time.Now(), &err)
	var labels []entities.Label
	err = r.db.WithContext(ctx).
		Preload("Provider").
		Where("image_sha1 = ?", sha1).
		Order("id ASC").
		Find(&labels).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "label_get_by_image").
			Context("image_sha1", sha1).
			Build()
	}
	r.rec.observeResultSize("label_get_by_image", tableLabels, len(labels))
	return labels, nil
}

func (r *labelRepository) GetState(ctx context.Context, sha1, conceptID string) (state review.State, err error) {
	defer r.rec.observe("label_get_state", tableLabels, time.Now(), &err)
	var label entities.Label
	err = r.db.WithContext(ctx).
		Where("image_sha1 = ? AND concept_id = ?", sha1, conceptID).
		Order("id ASC").
		First(&label).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrLabelNotFound
	}
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "label_get_state").
			Context("image_sha1", sha1).
			Context("concept_id", conceptID).
			Build()
	}
	return label.State, nil
}

func (r *labelRepository) UpdateStateIf(ctx context.Context, sha1, conceptID string, from, to review.State, reviewerID int64, reviewedAt time.Time) (rows int64, err error) {
	defer r.rec.observe("label_update_state", tableLabels, time.Now(), &err)
	result := r.db.WithContext(ctx).
		Model(&entities.Label{}).
		Where("image_sha1 = ? AND concept_id = ? AND state = ?", sha1, conceptID, from).
		Updates(map[string]any{
			"state":       to,
			"reviewer_id": reviewerID,
			"reviewed_at": reviewedAt,
		})
	if result.Error != nil {
		return 0, errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "label_update_state").
			Context("image_sha1", sha1).
			Context("concept_id", conceptID).
			Build()
	}
	return result.RowsAffected, nil
}

func (r *labelRepository) ListImagesWithStates(ctx context.Context, states []review.State, limit int, uploaderID *int64) (result []string, err error) {
	defer r.rec.observe("label_list_images", tableLabels, time.Now(), &err)
	if len(states) == 0 {
		return nil, errors.New(ErrInvalidInput).
			Category(errors.CategoryValidation).
			Context("field", "states").
			Build()
	}

	query := r.db.WithContext(ctx).
		Table(tableLabels).
		Select("labels.image_sha1").
		Joins("JOIN images ON images.sha1 = labels.image_sha1").
		Where("labels.state IN ?", states).
		Group("labels.image_sha1, images.priority").
		Order("images.priority DESC").
		Order("MIN(labels.id) ASC").
		Limit(limit)
	if uploaderID != nil {
		query = query.Where("images.uploader_id = ?", *uploaderID)
	}

	var sha1s []string
	if err := query.Pluck("labels.image_sha1", &sha1s).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "label_list_images").
			Build()
	}
	r.rec.observeResultSize("label_list_images", tableLabels, len(sha1s))
	return sha1s, nil
}

func (r *labelRepository) CountImagesWithStates(ctx context.Context, states []review.State, uploaderID int64) (count int64, err error) {
	defer r.rec.observe("label_count_images", tableLabels, time.Now(), &err)
	if len(states) == 0 {
		return 0, errors.New(ErrInvalidInput).
			Category(errors.CategoryValidation).
			Context("field", "states").
			Build()
	}

	err = r.db.WithContext(ctx).
		Table(tableLabels).
		Joins("JOIN images ON images.sha1 = labels.image_sha1").
		Where("labels.state IN ?", states).
		Where("images.uploader_id = ?", uploaderID).
		Distinct("labels.image_sha1").
		Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "label_count_images").
			Context("uploader_id", uploaderID).
			Build()
	}
	return count, nil
}

func (r *labelRepository) CountByState(ctx context.Context) (map[review.State]int64, error) {
	type stateCount struct {
		State review.State
		Count int64
	}

	var rows []stateCount
	err := r.db.WithContext(ctx).
		Table(tableLabels).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "label_count_by_state").
			Build()
	}

	counts := make(map[review.State]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
