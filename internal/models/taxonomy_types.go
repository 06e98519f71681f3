package models

import (
	"database/sql"
	"time"
)

// --- Domain Models ---

type Category struct {
	ID        int64         `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Slug      string        `json:"slug" db:"slug"`
	ParentID  sql.NullInt64 `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`

	// Virtual field used to build the tree view in the dashboard UI.
	Children []Category `json:"children,omitempty" db:"-"`
}

type Brand struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Collection is a curated, merchandised grouping of products ("Summer
// Glow", "New Arrivals"), unrelated to the category tree.
type Collection struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	ImageURL    *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	ProductCount int `json:"productCount,omitempty" db:"-"`
}

// --- API Input Structs ---

type CreateCategoryInput struct {
	Name     string `json:"name" binding:"required"`
	ParentID *int64 `json:"parentId"` // null for root categories
}

type CreateBrandInput struct {
	Name string `json:"name" binding:"required"`
}

type CreateCollectionInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}
