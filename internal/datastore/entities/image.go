package entities

import "time"

// Image is identified by the sha1 of the underlying file content rather
// than by title: titles change, content hashes are stable and dedupe
// re-uploads of identical bytes.
type Image struct {
	SHA1 string `gorm:"primaryKey;size:40"`
	// Priority orders queue processing; higher values surface first.
	// Mutable post-creation (e.g. by a prioritization batch job).
	Priority   int       `gorm:"not null;default:0;index"`
	UploaderID int64     `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Image) TableName() string {
	return "images"
}
