package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
	"github.com/glowora/glowora-api/internal/pricing"
)

//
// --- Checkout & Order Handlers ---
//

// checkoutLine is one validated cart line headed into an order, with the
// price it will be frozen at.
type checkoutLine struct {
	productID *int64
	variantID *int64
	name      string
	sku       *string
	quantity  int
	unitPrice int64
	salePrice *int64
}

type CheckoutInput struct {
	AddressID *int64 `json:"addressId"`
}

// Checkout is the handler for POST /v1/checkout.
//
// All validation happens before any insert: authenticated user, non-empty
// cart, a usable address, and sufficient stock for every line. On failure a
// typed failure body is returned and no order or order-item row exists. On
// success the order snapshots prices and the shipping address; clearing the
// cart is a separate post-commit step, deliberately outside the order
// transaction.
func (h *Handlers) Checkout(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	// 1. --- Resolve the shipping address ---
	var addr models.Address
	var addrErr error
	if input.AddressID != nil {
		addrErr = h.DB.QueryRow(
			"SELECT id, recipient, phone, line1, line2, city, state, postcode FROM addresses WHERE id = ? AND user_id = ?",
			*input.AddressID, userID,
		).Scan(&addr.ID, &addr.Recipient, &addr.Phone, &addr.Line1, &addr.Line2, &addr.City, &addr.State, &addr.Postcode)
	} else {
		addrErr = h.DB.QueryRow(
			"SELECT id, recipient, phone, line1, line2, city, state, postcode FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at DESC LIMIT 1",
			userID,
		).Scan(&addr.ID, &addr.Recipient, &addr.Phone, &addr.Line1, &addr.Line2, &addr.City, &addr.State, &addr.Postcode)
	}
	if addrErr != nil {
		if addrErr == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, failFields(
				"A shipping address is required before checkout",
				map[string]string{"addressId": "no address on file"},
			))
			return
		}
		log.Printf("checkout: address lookup failed: %v", addrErr)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	// 2. --- Validate the cart inside a serializable transaction ---
	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Printf("checkout: begin failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}
	defer tx.Rollback()

	// Lock the referenced catalog rows so stock cannot move under us
	// between validation and insert.
	query := `
		SELECT
			ci.product_id, ci.variant_id, ci.quantity,
			p.name, p.sku, p.price, p.sale_price, p.in_stock,
			vp.name, v.sku, v.color, v.size, v.price, v.sale_price, v.in_stock
		FROM cart_items ci
		LEFT JOIN products p ON ci.product_id = p.id AND p.status = 'active'
		LEFT JOIN product_variants v ON ci.variant_id = v.id
		LEFT JOIN products vp ON v.product_id = vp.id AND vp.status = 'active'
		WHERE ci.user_id = ?
		FOR UPDATE`

	rows, err := tx.Query(query, userID)
	if err != nil {
		log.Printf("checkout: cart query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var (
			cl     checkoutLine
			pName  sql.NullString
			pSKU   sql.NullString
			pPrice sql.NullInt64
			pSale  sql.NullInt64
			pStock sql.NullInt64
			vpName sql.NullString
			vSKU   sql.NullString
			vColor sql.NullString
			vSize  sql.NullString
			vPrice sql.NullInt64
			vSale  sql.NullInt64
			vStock sql.NullInt64
		)
		if err := rows.Scan(
			&cl.productID, &cl.variantID, &cl.quantity,
			&pName, &pSKU, &pPrice, &pSale, &pStock,
			&vpName, &vSKU, &vColor, &vSize, &vPrice, &vSale, &vStock,
		); err != nil {
			log.Printf("checkout: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
			return
		}

		var stock int64
		switch {
		case cl.productID != nil && pName.Valid:
			cl.name = pName.String
			if pSKU.Valid {
				cl.sku = &pSKU.String
			}
			cl.unitPrice = pPrice.Int64
			if pSale.Valid {
				cl.salePrice = &pSale.Int64
			}
			stock = pStock.Int64
		case cl.variantID != nil && vpName.Valid:
			cl.name = fmt.Sprintf("%s (%s / %s)", vpName.String, vColor.String, vSize.String)
			if vSKU.Valid {
				cl.sku = &vSKU.String
			}
			cl.unitPrice = vPrice.Int64
			if vSale.Valid {
				cl.salePrice = &vSale.Int64
			}
			stock = vStock.Int64
		default:
			// Catalog row gone or inactive; the cart line is ignored.
			continue
		}

		if int64(cl.quantity) > stock {
			c.JSON(http.StatusConflict, failFields(
				fmt.Sprintf("Not enough stock for %q", cl.name),
				map[string]string{"quantity": fmt.Sprintf("requested %d, only %d available", cl.quantity, stock)},
			))
			return
		}
		lines = append(lines, cl)
	}
	if err := rows.Err(); err != nil {
		log.Printf("checkout: iteration failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, fail("Your cart is empty"))
		return
	}

	// 3. --- Compute totals and snapshot the order ---
	priceLines := make([]pricing.Line, 0, len(lines))
	for _, cl := range lines {
		priceLines = append(priceLines, pricing.Line{
			UnitPrice: pricing.EffectiveUnitPrice(cl.unitPrice, cl.salePrice),
			Quantity:  cl.quantity,
		})
	}
	totals := pricing.Calculate(priceLines)

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO orders (user_id, status, subtotal, shipping_cost, tax_amount, total_amount,
			ship_recipient, ship_phone, ship_line1, ship_line2, ship_city, ship_state, ship_postcode,
			created_at, updated_at)
		VALUES (?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, totals.Subtotal, totals.ShippingCost, totals.TaxAmount, totals.TotalAmount,
		addr.Recipient, addr.Phone, addr.Line1, addr.Line2, addr.City, addr.State, addr.Postcode,
		now, now)
	if err != nil {
		log.Printf("checkout: order insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create order"))
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		log.Printf("checkout: order id failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create order"))
		return
	}

	for _, cl := range lines {
		_, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, variant_id, name, sku, quantity, unit_price, sale_price, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			orderID, cl.productID, cl.variantID, cl.name, cl.sku, cl.quantity, cl.unitPrice, cl.salePrice, now)
		if err != nil {
			log.Printf("checkout: order item insert failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to create order"))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("checkout: commit failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create order"))
		return
	}

	// 4. --- Clear the cart (separate step, not part of the order tx) ---
	if _, err := h.DB.Exec("DELETE FROM cart_items WHERE user_id = ?", userID); err != nil {
		log.Printf("checkout: cart clear for user %d failed: %v", userID, err)
	}

	// 5. --- Confirmation email (best-effort) ---
	var userEmail string
	if err := h.DB.QueryRow("SELECT email FROM users WHERE id = ?", userID).Scan(&userEmail); err == nil {
		if err := h.Mailer.SendOrderConfirmation(userEmail, orderID, totals.TotalAmount); err != nil {
			log.Printf("checkout: confirmation email failed: %v", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"orderId": orderID,
		"status":  models.OrderPending,
		"totals":  totals,
	})
}

// GetMyOrders is the handler for GET /v1/orders.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT id, user_id, status, subtotal, shipping_cost, tax_amount, total_amount, created_at, updated_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		log.Printf("orders: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch orders"))
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			log.Printf("orders: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch orders"))
			return
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /v1/orders/:id.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	var o models.Order
	err := h.DB.QueryRow(`
		SELECT id, user_id, status, subtotal, shipping_cost, tax_amount, total_amount,
			ship_recipient, ship_phone, ship_line1, ship_line2, ship_city, ship_state, ship_postcode,
			created_at, updated_at
		FROM orders
		WHERE id = ? AND user_id = ?`,
		orderID, userID,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.TotalAmount,
		&o.ShipRecipient, &o.ShipPhone, &o.ShipLine1, &o.ShipLine2, &o.ShipCity, &o.ShipState, &o.ShipPostcode,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Order not found"))
			return
		}
		log.Printf("order details: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch order"))
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, order_id, product_id, variant_id, name, sku, quantity, unit_price, sale_price, created_at
		FROM order_items
		WHERE order_id = ?`,
		o.ID)
	if err != nil {
		log.Printf("order details: items query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch order items"))
		return
	}
	defer rows.Close()

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var sku sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Name, &sku, &item.Quantity, &item.UnitPrice, &item.SalePrice, &item.CreatedAt); err != nil {
			log.Printf("order details: item scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch order items"))
			return
		}
		if sku.Valid {
			item.SKU = &sku.String
		}
		o.Items = append(o.Items, item)
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

// CancelOrder is the handler for POST /v1/orders/:id/cancel. A user can
// cancel their own order at any point before delivery; stock deducted at
// the processing transition is restored.
func (h *Handlers) CancelOrder(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		log.Printf("cancel: begin failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}
	defer tx.Rollback()

	var status models.OrderStatus
	err = tx.QueryRow("SELECT status FROM orders WHERE id = ? AND user_id = ? FOR UPDATE", orderID, userID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Order not found"))
			return
		}
		log.Printf("cancel: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	if !status.CanTransitionTo(models.OrderCancelled) {
		c.JSON(http.StatusConflict, fail(fmt.Sprintf("Order in status %q cannot be cancelled", status)))
		return
	}

	// Stock is only deducted once an order reaches 'processing'; give it
	// back when such an order is cancelled.
	if status != models.OrderPending {
		if err := restockOrderItems(tx, orderID); err != nil {
			log.Printf("cancel: restock failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
			return
		}
	}

	_, err = tx.Exec("UPDATE orders SET status = 'cancelled', updated_at = ? WHERE id = ?", time.Now(), orderID)
	if err != nil {
		log.Printf("cancel: update failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("cancel: commit failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "status": models.OrderCancelled})
}

// restockOrderItems returns an order's quantities to the catalog.
func restockOrderItems(tx *sql.Tx, orderID string) error {
	rows, err := tx.Query("SELECT product_id, variant_id, quantity FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type restock struct {
		productID *int64
		variantID *int64
		quantity  int
	}
	var items []restock
	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.productID, &r.variantID, &r.quantity); err != nil {
			return err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range items {
		if r.productID != nil {
			if _, err := tx.Exec("UPDATE products SET in_stock = in_stock + ? WHERE id = ?", r.quantity, *r.productID); err != nil {
				return err
			}
		} else if r.variantID != nil {
			if _, err := tx.Exec("UPDATE product_variants SET in_stock = in_stock + ? WHERE id = ?", r.quantity, *r.variantID); err != nil {
				return err
			}
		}
	}
	return nil
}
