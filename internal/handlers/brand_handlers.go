package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
	"github.com/gosimple/slug"
)

//
// --- Brand Handlers ---
//

// CreateBrand is the handler for POST /v1/admin/brands.
func (h *Handlers) CreateBrand(c *gin.Context) {
	var input models.CreateBrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(
		"INSERT INTO brands (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)",
		input.Name, slug.Make(input.Name), now, now)
	if err != nil {
		// Most likely a UNIQUE violation on name or slug.
		c.JSON(http.StatusConflict, fail("A brand with this name already exists"))
		return
	}
	id, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Brand created", "id": id})
}

// GetAllBrands is the handler for GET /v1/brands.
func (h *Handlers) GetAllBrands(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, slug, created_at, updated_at FROM brands ORDER BY name ASC")
	if err != nil {
		log.Printf("brands: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch brands"))
		return
	}
	defer rows.Close()

	brands := []models.Brand{}
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt); err != nil {
			log.Printf("brands: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch brands"))
			return
		}
		brands = append(brands, b)
	}

	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// UpdateBrand is the handler for PUT /v1/admin/brands/:id. Renaming a brand
// regenerates its slug.
func (h *Handlers) UpdateBrand(c *gin.Context) {
	var input models.CreateBrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	result, err := h.DB.Exec(
		"UPDATE brands SET name = ?, slug = ?, updated_at = ? WHERE id = ?",
		input.Name, slug.Make(input.Name), time.Now(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusConflict, fail("A brand with this name already exists"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM brands WHERE id = ?", c.Param("id")).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Brand not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Brand updated"})
}

// DeleteBrand is the handler for DELETE /v1/admin/brands/:id. Products
// referencing the brand keep existing with brand_id set to NULL.
func (h *Handlers) DeleteBrand(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM brands WHERE id = ?", c.Param("id"))
	if err != nil {
		log.Printf("brand delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete brand"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Brand not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Brand deleted"})
}

// getBrandBySlug resolves a brand for the public catalog filter.
func (h *Handlers) getBrandBySlug(s string) (*models.Brand, error) {
	var b models.Brand
	err := h.DB.QueryRow("SELECT id, name, slug, created_at, updated_at FROM brands WHERE slug = ?", s).
		Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
