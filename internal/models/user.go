// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an authentication identity. Its public face is the Profile that
// shares its ID.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
