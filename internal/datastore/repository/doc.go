// Package repository provides data access interfaces and GORM-backed
// implementations for the label review schema. Each entity gets an
// interface file describing the contract and an _impl.go file with the
// concrete implementation over *gorm.DB.
package repository
