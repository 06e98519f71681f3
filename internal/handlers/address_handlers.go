package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
)

//
// --- Address Handlers (authenticated) ---
//

// GetMyAddresses is the handler for GET /v1/addresses.
func (h *Handlers) GetMyAddresses(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	rows, err := h.DB.Query(`
		SELECT id, user_id, recipient, phone, line1, line2, city, state, postcode, is_default, created_at, updated_at
		FROM addresses
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at DESC`,
		userID)
	if err != nil {
		log.Printf("addresses: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch addresses"))
		return
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Recipient, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.State, &a.Postcode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			log.Printf("addresses: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch addresses"))
			return
		}
		addresses = append(addresses, a)
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// CreateAddress is the handler for POST /v1/addresses.
func (h *Handlers) CreateAddress(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input models.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	now := time.Now()
	if input.IsDefault {
		if _, err := h.DB.Exec("UPDATE addresses SET is_default = 0, updated_at = ? WHERE user_id = ?", now, userID); err != nil {
			log.Printf("address create: clear default failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to save address"))
			return
		}
	}

	result, err := h.DB.Exec(`
		INSERT INTO addresses (user_id, recipient, phone, line1, line2, city, state, postcode, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, input.Recipient, input.Phone, input.Line1, input.Line2, input.City, input.State, input.Postcode, input.IsDefault, now, now)
	if err != nil {
		log.Printf("address create: insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to save address"))
		return
	}
	id, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Address saved", "id": id})
}

// UpdateAddress is the handler for PUT /v1/addresses/:id.
func (h *Handlers) UpdateAddress(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	addressID := c.Param("id")

	var input models.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	now := time.Now()
	if input.IsDefault {
		if _, err := h.DB.Exec("UPDATE addresses SET is_default = 0, updated_at = ? WHERE user_id = ?", now, userID); err != nil {
			log.Printf("address update: clear default failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to update address"))
			return
		}
	}

	result, err := h.DB.Exec(`
		UPDATE addresses
		SET recipient = ?, phone = ?, line1 = ?, line2 = ?, city = ?, state = ?, postcode = ?, is_default = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		input.Recipient, input.Phone, input.Line1, input.Line2, input.City, input.State, input.Postcode, input.IsDefault, now,
		addressID, userID)
	if err != nil {
		log.Printf("address update: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update address"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		// Could also mean an identical update; check existence to keep 404s honest.
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM addresses WHERE id = ? AND user_id = ?", addressID, userID).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Address not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address updated"})
}

// DeleteAddress is the handler for DELETE /v1/addresses/:id.
func (h *Handlers) DeleteAddress(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	addressID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM addresses WHERE id = ? AND user_id = ?", addressID, userID)
	if err != nil {
		log.Printf("address delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete address"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Address not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
