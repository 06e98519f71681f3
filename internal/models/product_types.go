package models

import "time"

// Product types. A 'simple' product carries its own price/sku/stock; a
// 'configurable' product is purchasable only through its variants, which
// own price/stock independently.
const (
	ProductTypeSimple       = "simple"
	ProductTypeConfigurable = "configurable"
)

// Product statuses. Only 'active' products are sellable.
const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// Product is the model for the 'products' table.
// All money fields are integer minor currency units.
type Product struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
	ProductType string `json:"productType" db:"product_type"`
	Status      string `json:"status" db:"status"`

	BrandID    *int64 `json:"brandId,omitempty" db:"brand_id"`
	CategoryID *int64 `json:"categoryId,omitempty" db:"category_id"`

	SKU       *string `json:"sku,omitempty" db:"sku"`
	Price     int64   `json:"price" db:"price"`
	SalePrice *int64  `json:"salePrice,omitempty" db:"sale_price"`
	InStock   int     `json:"inStock" db:"in_stock"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins, populated manually by handlers.
	Images   []ProductImage   `json:"images,omitempty" db:"-"`
	Variants []ProductVariant `json:"variants,omitempty" db:"-"`

	BrandName    *string `json:"brandName,omitempty" db:"-"`
	CategoryName *string `json:"categoryName,omitempty" db:"-"`
}

// ProductImage is the model for the 'product_images' table.
type ProductImage struct {
	ID        int64  `json:"id" db:"id"`
	ProductID int64  `json:"productId" db:"product_id"`
	URL       string `json:"url" db:"url"`
	SortOrder int    `json:"sortOrder" db:"sort_order"`
}

// ProductVariant is the model for the 'product_variants' table: one
// color/size combination of a configurable product.
type ProductVariant struct {
	ID        int64   `json:"id" db:"id"`
	ProductID int64   `json:"productId" db:"product_id"`
	SKU       *string `json:"sku,omitempty" db:"sku"`
	Color     string  `json:"color" db:"color"`
	Size      string  `json:"size" db:"size"`
	Price     int64   `json:"price" db:"price"`
	SalePrice *int64  `json:"salePrice,omitempty" db:"sale_price"`
	InStock   int     `json:"inStock" db:"in_stock"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Images []VariantImage `json:"images,omitempty" db:"-"`
}

// VariantImage is the model for the 'variant_images' table.
type VariantImage struct {
	ID        int64  `json:"id" db:"id"`
	VariantID int64  `json:"variantId" db:"variant_id"`
	URL       string `json:"url" db:"url"`
	SortOrder int    `json:"sortOrder" db:"sort_order"`
}

// --- API Input Structs ---

type VariantInput struct {
	SKU       *string  `json:"sku"`
	Color     string   `json:"color" binding:"required"`
	Size      string   `json:"size" binding:"required"`
	Price     int64    `json:"price" binding:"required,gt=0"`
	SalePrice *int64   `json:"salePrice"`
	InStock   int      `json:"inStock" binding:"gte=0"`
	Images    []string `json:"images"`
}

type CreateProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	ProductType string  `json:"productType" binding:"required,oneof=simple configurable"`
	BrandID     *int64  `json:"brandId"`
	CategoryID  *int64  `json:"categoryId"`
	SKU         *string `json:"sku"`

	// Required for simple products, ignored for configurable ones.
	Price     int64  `json:"price"`
	SalePrice *int64 `json:"salePrice"`
	InStock   int    `json:"inStock"`

	Images   []string       `json:"images"`
	Variants []VariantInput `json:"variants"`
}

type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=draft active archived"`
	BrandID     *int64  `json:"brandId"`
	CategoryID  *int64  `json:"categoryId"`
	SKU         *string `json:"sku"`
	Price       *int64  `json:"price"`
	SalePrice   *int64  `json:"salePrice"`
	InStock     *int    `json:"inStock"`
}
