package models

import "time"

// Media is the model for the 'media' table: an uploaded file the dashboard
// can attach to products, variants and collections by URL.
type Media struct {
	ID         int64     `json:"id" db:"id"`
	URL        string    `json:"url" db:"url"`
	Filename   string    `json:"filename" db:"filename"`
	UploadedBy *int64    `json:"uploadedBy,omitempty" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
