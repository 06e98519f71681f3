package models

import "time"

// Address is the model for the 'addresses' table. Orders copy the fields
// they need at checkout; they never reference an address row live.
type Address struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Recipient string    `json:"recipient" db:"recipient"`
	Phone     string    `json:"phone" db:"phone"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     *string   `json:"line2,omitempty" db:"line2"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	Postcode  string    `json:"postcode" db:"postcode"`
	IsDefault bool      `json:"isDefault" db:"is_default"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AddressInput is the payload for creating or updating an address.
type AddressInput struct {
	Recipient string  `json:"recipient" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	Line1     string  `json:"line1" binding:"required"`
	Line2     *string `json:"line2"`
	City      string  `json:"city" binding:"required"`
	State     string  `json:"state" binding:"required"`
	Postcode  string  `json:"postcode" binding:"required"`
	IsDefault bool    `json:"isDefault"`
}
