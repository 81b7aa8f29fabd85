package entities

import (
	"time"

	"github.com/vireolabs/machinevision/internal/review"
)

// Label is a single machine-suggested depicts statement for an image:
// one row per (image, provider, canonical concept) triple. The triple is
// unique; repeated ingestion of the same suggestion never creates a
// second row. Review actions mutate State only - ingestion never touches
// existing rows.
type Label struct {
	ID         uint         `gorm:"primaryKey"`
	ImageSHA1  string       `gorm:"size:40;not null;uniqueIndex:idx_label_identity;index"`
	ProviderID uint         `gorm:"not null;uniqueIndex:idx_label_identity"`
	ConceptID  string       `gorm:"size:32;not null;uniqueIndex:idx_label_identity;index"`
	Confidence float64      `gorm:"not null;default:0"`
	State      review.State `gorm:"type:varchar(20);not null;index"`
	ReviewerID *int64
	ReviewedAt *time.Time
	// CreatedAt is computed once per ingestion batch, not per row.
	CreatedAt time.Time `gorm:"not null"`

	// Relationships
	Provider *Provider `gorm:"foreignKey:ProviderID"`
	Image    *Image    `gorm:"foreignKey:ImageSHA1;references:SHA1;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Label) TableName() string {
	return "labels"
}
