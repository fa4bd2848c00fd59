// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered employee account.
//
// PasswordHash is never serialised: the json:"-" tag keeps the bcrypt hash out
// of every API response, even when a handler writes the whole struct.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	IsAdmin      bool      `json:"isAdmin"   db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
