// Package models contains GORM persistence models that map to database tables.
// They stay separate from domain entities so the domain layer carries no ORM
// tags. Each model has ToDomain and FromDomain mappers used by the
// repositories in the persistence package.
package models
