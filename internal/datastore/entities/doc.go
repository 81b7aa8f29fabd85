// Package entities defines the GORM entities for the normalized label
// review schema: providers, images, labels, safety annotations and the
// concept identifier mapping table.
package entities
