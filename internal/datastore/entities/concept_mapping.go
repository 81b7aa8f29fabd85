package entities

// ConceptMapping maps a provider-specific concept identifier (e.g. a
// Freebase machine ID) to a canonical knowledge-base identifier. One
// provider ID may map to several canonical IDs; the fan-out is preserved.
// The table is read-only at request time and refreshed by an offline
// bulk load.
type ConceptMapping struct {
	ID                uint   `gorm:"primaryKey"`
	ProviderConceptID string `gorm:"size:64;not null;uniqueIndex:idx_concept_mapping;index"`
	CanonicalID       string `gorm:"size:32;not null;uniqueIndex:idx_concept_mapping"`
}

// TableName returns the table name for GORM.
func (ConceptMapping) TableName() string {
	return "concept_mappings"
}
