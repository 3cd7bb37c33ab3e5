package model

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a directory user.
//
// Email carries a plain (non-unique) index: uniqueness is scoped to rows
// where deleted_at is NULL, so a soft-deleted account's email may be reused.
// The repository enforces that scope transactionally instead of a DB
// unique constraint.
type Account struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	FirstName    string         `json:"first_name" gorm:"size:255;not null"`
	LastName     string         `json:"last_name" gorm:"size:255;not null"`
	Email        string         `json:"email" gorm:"size:255;not null;index"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role           `json:"role" gorm:"size:50;not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// FullName returns the display name used in search and notifications.
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Deleted reports whether the account has been soft-deleted.
func (a *Account) Deleted() bool {
	return a.DeletedAt.Valid
}

// Page is one page of a bounded account listing.
type Page struct {
	Items   []Account `json:"items"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}
