package entities

import (
	"time"

	"github.com/vireolabs/machinevision/internal/review"
)

// SafetyAnnotation stores the per-image safety classification scores on
// the 0-5 SafeSearch likelihood scale, one row per image. Written
// alongside initial label ingestion; a later ingestion for the same image
// overwrites, it never appends.
type SafetyAnnotation struct {
	ID        uint      `gorm:"primaryKey"`
	ImageSHA1 string    `gorm:"size:40;not null;uniqueIndex"`
	Adult     int       `gorm:"not null;default:0"`
	Spoof     int       `gorm:"not null;default:0"`
	Medical   int       `gorm:"not null;default:0"`
	Violence  int       `gorm:"not null;default:0"`
	Racy      int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (SafetyAnnotation) TableName() string {
	return "safety_annotations"
}

// Scores converts the row to the policy input type.
func (a *SafetyAnnotation) Scores() review.Scores {
	return review.Scores{
		Adult:    a.Adult,
		Spoof:    a.Spoof,
		Medical:  a.Medical,
		Violence: a.Violence,
		Racy:     a.Racy,
	}
}
