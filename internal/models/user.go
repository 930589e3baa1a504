package models

import (
	"github.com/google/uuid"
)

// User represents an authenticated customer.
type User struct {
	BaseModel
	Email        string    `gorm:"uniqueIndex" json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Profile      *Profile  `json:"profile,omitempty"`
	Addresses    []Address `json:"addresses,omitempty"`
	Orders       []Order   `json:"orders,omitempty"`
}

// Profile stores additional user information, one per user.
type Profile struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Bio        string    `json:"bio"`
	Gender     string    `json:"gender"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
}

// Address is a shipping address; a user may keep several.
type Address struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AddressType  string    `json:"address_type"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
}
