package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
)

//
// --- Admin Order Management ---
//

// AdminListOrders is the handler for GET /v1/admin/orders. Supports an
// optional ?status= filter.
func (h *Handlers) AdminListOrders(c *gin.Context) {
	query := `
		SELECT o.id, o.user_id, o.status, o.subtotal, o.shipping_cost, o.tax_amount, o.total_amount,
			o.created_at, o.updated_at, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.id`
	var args []interface{}

	if status := models.OrderStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, fail("Unknown order status"))
			return
		}
		query += " WHERE o.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY o.created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		log.Printf("admin orders: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch orders"))
		return
	}
	defer rows.Close()

	type adminOrder struct {
		models.Order
		CustomerEmail string `json:"customerEmail"`
	}

	orders := []adminOrder{}
	for rows.Next() {
		var o adminOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.TotalAmount,
			&o.CreatedAt, &o.UpdatedAt, &o.CustomerEmail); err != nil {
			log.Printf("admin orders: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch orders"))
			return
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type UpdateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

var errInsufficientStock = errors.New("insufficient stock")

// UpdateOrderStatus is the handler for PATCH /v1/admin/orders/:id/status.
//
// Statuses move forward one step at a time; 'cancelled' is reachable from
// any non-terminal status. Stock is deducted when an order moves from
// 'pending' to 'processing' and returned if a processing-or-later order is
// cancelled.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, failFields("Unknown order status", map[string]string{"status": "unknown"}))
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		log.Printf("order status: begin failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
		return
	}
	defer tx.Rollback()

	var current models.OrderStatus
	err = tx.QueryRow("SELECT status FROM orders WHERE id = ? FOR UPDATE", orderID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Order not found"))
			return
		}
		log.Printf("order status: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
		return
	}

	if !current.CanTransitionTo(input.Status) {
		c.JSON(http.StatusConflict, fail(fmt.Sprintf("Cannot move order from %q to %q", current, input.Status)))
		return
	}

	switch {
	case current == models.OrderPending && input.Status == models.OrderProcessing:
		// Stock was only validated at checkout; it is committed here.
		if err := deductOrderItems(tx, orderID); err != nil {
			if errors.Is(err, errInsufficientStock) {
				c.JSON(http.StatusConflict, fail("Not enough stock to start processing: "+err.Error()))
				return
			}
			log.Printf("order status: deduct failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
			return
		}
	case input.Status == models.OrderCancelled && current != models.OrderPending:
		if err := restockOrderItems(tx, orderID); err != nil {
			log.Printf("order status: restock failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
			return
		}
	}

	if _, err := tx.Exec("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", input.Status, time.Now(), orderID); err != nil {
		log.Printf("order status: update failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("order status: commit failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update order"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "status": input.Status})
}

// deductOrderItems takes an order's quantities out of the catalog, failing
// with errInsufficientStock if any line can no longer be covered.
func deductOrderItems(tx *sql.Tx, orderID string) error {
	rows, err := tx.Query("SELECT product_id, variant_id, name, quantity FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type deduct struct {
		productID *int64
		variantID *int64
		name      string
		quantity  int
	}
	var items []deduct
	for rows.Next() {
		var d deduct
		if err := rows.Scan(&d.productID, &d.variantID, &d.name, &d.quantity); err != nil {
			return err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, d := range items {
		var result sql.Result
		var execErr error
		// The in_stock >= ? guard makes the deduction atomic; zero rows
		// affected means the stock moved since checkout.
		if d.productID != nil {
			result, execErr = tx.Exec(
				"UPDATE products SET in_stock = in_stock - ? WHERE id = ? AND in_stock >= ?",
				d.quantity, *d.productID, d.quantity)
		} else if d.variantID != nil {
			result, execErr = tx.Exec(
				"UPDATE product_variants SET in_stock = in_stock - ? WHERE id = ? AND in_stock >= ?",
				d.quantity, *d.variantID, d.quantity)
		} else {
			continue
		}
		if execErr != nil {
			return execErr
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w for %q", errInsufficientStock, d.name)
		}
	}
	return nil
}

//
// --- Admin Dashboard Stats ---
//

type AdminStats struct {
	PendingOrders    int   `json:"pendingOrders"`
	ProcessingOrders int   `json:"processingOrders"`
	TotalRevenue     int64 `json:"totalRevenue"`
	ActiveProducts   int   `json:"activeProducts"`
	LowStockCount    int   `json:"lowStockCount"`
	TotalCustomers   int   `json:"totalCustomers"`
}

// GetAdminStats returns KPI data for the admin dashboard.
// GET /v1/admin/dashboard-stats
func (h *Handlers) GetAdminStats(c *gin.Context) {
	stats := AdminStats{}

	// 1. Order queue counts
	err := h.DB.QueryRow("SELECT COUNT(*) FROM orders WHERE status = 'pending'").Scan(&stats.PendingOrders)
	if err != nil {
		log.Printf("admin stats: pending count failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}
	err = h.DB.QueryRow("SELECT COUNT(*) FROM orders WHERE status = 'processing'").Scan(&stats.ProcessingOrders)
	if err != nil {
		log.Printf("admin stats: processing count failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}

	// 2. Revenue across everything that was not cancelled
	err = h.DB.QueryRow("SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status != 'cancelled'").Scan(&stats.TotalRevenue)
	if err != nil {
		log.Printf("admin stats: revenue failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}

	// 3. Catalog health
	err = h.DB.QueryRow("SELECT COUNT(*) FROM products WHERE status = 'active'").Scan(&stats.ActiveProducts)
	if err != nil {
		log.Printf("admin stats: product count failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}

	// Low stock (< 10) across sellable simple products and variants of
	// active configurable products.
	lowStockQuery := `
		SELECT
			(SELECT COUNT(*) FROM products WHERE status = 'active' AND product_type = 'simple' AND in_stock < 10)
			+
			(SELECT COUNT(*) FROM product_variants v JOIN products p ON v.product_id = p.id
				WHERE p.status = 'active' AND v.in_stock < 10)`
	err = h.DB.QueryRow(lowStockQuery).Scan(&stats.LowStockCount)
	if err != nil {
		log.Printf("admin stats: low stock failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}

	// 4. Customer base
	err = h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'user'").Scan(&stats.TotalCustomers)
	if err != nil {
		log.Printf("admin stats: user count failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to load stats"))
		return
	}

	c.JSON(http.StatusOK, stats)
}
