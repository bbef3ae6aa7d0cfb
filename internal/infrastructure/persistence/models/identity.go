package models

import (
	"time"

	"github.com/grocer/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Email             string              `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string              `gorm:"type:varchar(255);not null"`
	Name              string              `gorm:"type:varchar(100);not null"`
	Phone             string              `gorm:"type:varchar(30)"`
	Role              identity.Role       `gorm:"type:varchar(20);not null;default:'customer';index"`
	Status            identity.UserStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	LastLoginAt       *time.Time
	FailedAttempts    int `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.root(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Name:              m.Name,
		Phone:             m.Phone,
		Role:              m.Role,
		Status:            m.Status,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		PasswordChangedAt: m.PasswordChangedAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Name:              u.Name,
		Phone:             u.Phone,
		Role:              u.Role,
		Status:            u.Status,
		LastLoginAt:       u.LastLoginAt,
		FailedAttempts:    u.FailedAttempts,
		LockedUntil:       u.LockedUntil,
		PasswordChangedAt: u.PasswordChangedAt,
	}
	m.AggregateModel = newAggregateModel(u.BaseAggregateRoot)
	return m
}
