package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/middleware"
	"github.com/glowora/glowora-api/internal/models"
	"github.com/glowora/glowora-api/internal/pricing"
	"github.com/glowora/glowora-api/internal/session"
)

//
// --- Cart Handlers (guest or user) ---
//

// ownerClause returns the WHERE fragment and argument selecting cart rows
// for the resolved identity.
func ownerClause(id session.Identity) (string, interface{}) {
	if id.IsUser() {
		return "user_id = ?", id.UserID
	}
	return "guest_token = ?", id.GuestToken
}

// clampQuantity bounds a requested quantity to [1, stock]. Stock below one
// still yields one; the caller rejects fully out-of-stock items before
// clamping.
func clampQuantity(requested, stock int) int {
	if requested < 1 {
		return 1
	}
	if requested > stock {
		return stock
	}
	return requested
}

// resolveStock returns the current stock for a cart reference, re-read at
// call time. Only active products count as purchasable.
func resolveStock(q queryRower, productID, variantID *int64) (int, error) {
	var stock int
	if productID != nil {
		err := q.QueryRow(
			"SELECT in_stock FROM products WHERE id = ? AND product_type = 'simple' AND status = 'active'",
			*productID,
		).Scan(&stock)
		return stock, err
	}
	err := q.QueryRow(`
		SELECT v.in_stock
		FROM product_variants v
		JOIN products p ON v.product_id = p.id
		WHERE v.id = ? AND p.status = 'active'`,
		*variantID,
	).Scan(&stock)
	return stock, err
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CartLineResponse is one resolved line in the GET /cart payload.
type CartLineResponse struct {
	ID        int64  `json:"id"`
	ProductID *int64 `json:"productId,omitempty"`
	VariantID *int64 `json:"variantId,omitempty"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
	InStock   int    `json:"inStock"`
}

// GetCart is the handler for GET /v1/cart.
func (h *Handlers) GetCart(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, fail("Session could not be resolved"))
		return
	}
	clause, arg := ownerClause(identity)

	query := `
		SELECT
			ci.id, ci.product_id, ci.variant_id, ci.quantity,
			p.name, p.price, p.sale_price, p.in_stock,
			(SELECT url FROM product_images WHERE product_id = p.id ORDER BY sort_order LIMIT 1),
			v.color, v.size, v.price, v.sale_price, v.in_stock,
			(SELECT url FROM variant_images WHERE variant_id = v.id ORDER BY sort_order LIMIT 1),
			vp.name
		FROM cart_items ci
		LEFT JOIN products p ON ci.product_id = p.id
		LEFT JOIN product_variants v ON ci.variant_id = v.id
		LEFT JOIN products vp ON v.product_id = vp.id
		WHERE ci.` + clause + `
		ORDER BY ci.created_at`

	rows, err := h.DB.Query(query, arg)
	if err != nil {
		log.Printf("cart: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load cart"))
		return
	}
	defer rows.Close()

	var lines []CartLineResponse
	var priceLines []pricing.Line
	var totalItems int

	for rows.Next() {
		var (
			line      CartLineResponse
			pName     sql.NullString
			pPrice    sql.NullInt64
			pSale     sql.NullInt64
			pStock    sql.NullInt64
			pImage    sql.NullString
			vColor    sql.NullString
			vSize     sql.NullString
			vPrice    sql.NullInt64
			vSale     sql.NullInt64
			vStock    sql.NullInt64
			vImage    sql.NullString
			vProdName sql.NullString
		)
		if err := rows.Scan(
			&line.ID, &line.ProductID, &line.VariantID, &line.Quantity,
			&pName, &pPrice, &pSale, &pStock, &pImage,
			&vColor, &vSize, &vPrice, &vSale, &vStock, &vImage,
			&vProdName,
		); err != nil {
			log.Printf("cart: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to load cart"))
			return
		}

		switch {
		case line.ProductID != nil && pName.Valid:
			var sale *int64
			if pSale.Valid {
				sale = &pSale.Int64
			}
			line.Name = pName.String
			line.UnitPrice = pricing.EffectiveUnitPrice(pPrice.Int64, sale)
			line.InStock = int(pStock.Int64)
			line.ImageURL = pImage.String
		case line.VariantID != nil && vProdName.Valid:
			var sale *int64
			if vSale.Valid {
				sale = &vSale.Int64
			}
			line.Name = vProdName.String
			line.Color = vColor.String
			line.Size = vSize.String
			line.UnitPrice = pricing.EffectiveUnitPrice(vPrice.Int64, sale)
			line.InStock = int(vStock.Int64)
			line.ImageURL = vImage.String
		default:
			// The product or variant behind this row is gone; the row
			// contributes nothing and is not shown.
			continue
		}

		line.LineTotal = line.UnitPrice * int64(line.Quantity)
		totalItems += line.Quantity
		lines = append(lines, line)
		priceLines = append(priceLines, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	if err := rows.Err(); err != nil {
		log.Printf("cart: iteration failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load cart"))
		return
	}

	if lines == nil {
		lines = []CartLineResponse{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      lines,
		"totalItems": totalItems,
		"totals":     pricing.Calculate(priceLines),
	})
}

// AddToCart is the handler for POST /v1/cart/items.
func (h *Handlers) AddToCart(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, fail("Session could not be resolved"))
		return
	}

	var input models.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}
	if (input.ProductID == nil) == (input.VariantID == nil) {
		c.JSON(http.StatusBadRequest, failFields(
			"Exactly one of productId or variantId must be provided",
			map[string]string{"productId": "mutually exclusive with variantId"},
		))
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		log.Printf("cart add: begin failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}
	defer tx.Rollback()

	stock, err := resolveStock(tx, input.ProductID, input.VariantID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Product not found or not available"))
			return
		}
		log.Printf("cart add: stock check failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}
	if stock < input.Quantity {
		c.JSON(http.StatusConflict, fail("Insufficient stock"))
		return
	}

	clause, arg := ownerClause(identity)
	var refClause string
	var refArg interface{}
	if input.ProductID != nil {
		refClause = "product_id = ?"
		refArg = *input.ProductID
	} else {
		refClause = "variant_id = ?"
		refArg = *input.VariantID
	}

	now := time.Now()
	var itemID int64
	var existing int
	err = tx.QueryRow(
		"SELECT id, quantity FROM cart_items WHERE "+clause+" AND "+refClause,
		arg, refArg,
	).Scan(&itemID, &existing)

	switch {
	case err == sql.ErrNoRows:
		var userID, productID, variantID *int64
		var guestToken *string
		if identity.IsUser() {
			userID = &identity.UserID
		} else {
			guestToken = &identity.GuestToken
		}
		productID = input.ProductID
		variantID = input.VariantID

		_, err = tx.Exec(`
			INSERT INTO cart_items (user_id, guest_token, product_id, variant_id, quantity, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, guestToken, productID, variantID, input.Quantity, now, now)
		if err != nil {
			log.Printf("cart add: insert failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
			return
		}
	case err != nil:
		log.Printf("cart add: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	default:
		// Combining with the existing line caps at available stock rather
		// than failing the request.
		newQty := clampQuantity(existing+input.Quantity, stock)
		_, err = tx.Exec(
			"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?",
			newQty, now, itemID)
		if err != nil {
			log.Printf("cart add: update failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("cart add: commit failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart"})
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:id. Quantity above
// stock clamps to stock; quantity 0 removes the item.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, fail("Session could not be resolved"))
		return
	}

	var input models.UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	clause, arg := ownerClause(identity)
	itemID := c.Param("id")

	var productID, variantID *int64
	err := h.DB.QueryRow(
		"SELECT product_id, variant_id FROM cart_items WHERE id = ? AND "+clause,
		itemID, arg,
	).Scan(&productID, &variantID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Item not found in cart"))
			return
		}
		log.Printf("cart update: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}

	if *input.Quantity == 0 {
		h.deleteCartItem(c, clause, arg, itemID)
		return
	}

	stock, err := resolveStock(h.DB, productID, variantID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Product no longer available"))
			return
		}
		log.Printf("cart update: stock check failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}
	if stock == 0 {
		c.JSON(http.StatusConflict, fail("Item is out of stock"))
		return
	}

	newQty := clampQuantity(*input.Quantity, stock)
	_, err = h.DB.Exec(
		"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ? AND "+clause,
		newQty, time.Now(), itemID, arg)
	if err != nil {
		log.Printf("cart update: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update cart"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Cart item quantity updated",
		"quantity": newQty,
		"clamped":  newQty != *input.Quantity,
	})
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:id.
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, fail("Session could not be resolved"))
		return
	}
	clause, arg := ownerClause(identity)
	h.deleteCartItem(c, clause, arg, c.Param("id"))
}

func (h *Handlers) deleteCartItem(c *gin.Context, clause string, arg interface{}, itemID string) {
	result, err := h.DB.Exec("DELETE FROM cart_items WHERE id = ? AND "+clause, itemID, arg)
	if err != nil {
		log.Printf("cart delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to remove item"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Item not found in cart"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}
