package repository

// Table names used in raw query fragments. Kept in one place so schema
// renames touch a single file.
const (
	tableProviders       = "providers"
	tableImages          = "images"
	tableLabels          = "labels"
	tableSafety          = "safety_annotations"
	tableConceptMappings = "concept_mappings"
)
