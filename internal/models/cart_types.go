package models

import "time"

// CartItem is the model for the 'cart_items' table.
//
// Ownership: exactly one of UserID / GuestToken is set. Reference: exactly
// one of ProductID / VariantID is set — a simple product is referenced
// directly, a configurable product only through one of its variants.
type CartItem struct {
	ID         int64   `json:"id" db:"id"`
	UserID     *int64  `json:"userId,omitempty" db:"user_id"`
	GuestToken *string `json:"-" db:"guest_token"`
	ProductID  *int64  `json:"productId,omitempty" db:"product_id"`
	VariantID  *int64  `json:"variantId,omitempty" db:"variant_id"`
	Quantity   int     `json:"quantity" db:"quantity"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsSimpleProduct reports whether the row references a product directly
// rather than through a variant.
func (ci CartItem) IsSimpleProduct() bool {
	return ci.ProductID != nil
}

// AddToCartInput is the payload for adding an item. Exactly one of
// ProductID / VariantID must be set; handlers enforce the exclusivity
// because binding tags cannot express it.
type AddToCartInput struct {
	ProductID *int64 `json:"productId"`
	VariantID *int64 `json:"variantId"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemInput is the payload for changing an item's quantity.
// Quantity 0 is treated as removal.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}
