package entities

import "time"

// Provider is a named external labeling source (e.g. "google-cloud-vision").
// The name to ID mapping is append-only: IDs are never reused or renumbered,
// and a new name gets a new ID on first reference.
type Provider struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Provider) TableName() string {
	return "providers"
}
