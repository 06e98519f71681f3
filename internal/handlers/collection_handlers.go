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
// --- Collection Handlers ---
//

// CreateCollection is the handler for POST /v1/admin/collections.
func (h *Handlers) CreateCollection(c *gin.Context) {
	var input models.CreateCollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(
		"INSERT INTO collections (name, slug, description, image_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		input.Name, slug.Make(input.Name), input.Description, input.ImageURL, now, now)
	if err != nil {
		c.JSON(http.StatusConflict, fail("A collection with this name already exists"))
		return
	}
	id, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Collection created", "id": id})
}

// GetAllCollections is the handler for GET /v1/collections.
func (h *Handlers) GetAllCollections(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT co.id, co.name, co.slug, co.description, co.image_url, co.created_at, co.updated_at,
			(SELECT COUNT(*) FROM collection_products cp WHERE cp.collection_id = co.id)
		FROM collections co
		ORDER BY co.name ASC`)
	if err != nil {
		log.Printf("collections: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch collections"))
		return
	}
	defer rows.Close()

	collections := []models.Collection{}
	for rows.Next() {
		var co models.Collection
		if err := rows.Scan(&co.ID, &co.Name, &co.Slug, &co.Description, &co.ImageURL, &co.CreatedAt, &co.UpdatedAt, &co.ProductCount); err != nil {
			log.Printf("collections: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch collections"))
			return
		}
		collections = append(collections, co)
	}

	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

// GetCollectionBySlug is the handler for GET /v1/collections/:slug. It
// returns the collection and its active products.
func (h *Handlers) GetCollectionBySlug(c *gin.Context) {
	var co models.Collection
	err := h.DB.QueryRow(
		"SELECT id, name, slug, description, image_url, created_at, updated_at FROM collections WHERE slug = ?",
		c.Param("slug"),
	).Scan(&co.ID, &co.Name, &co.Slug, &co.Description, &co.ImageURL, &co.CreatedAt, &co.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Collection not found"))
			return
		}
		log.Printf("collection: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch collection"))
		return
	}

	products, err := h.listProducts(productQuery{CollectionID: &co.ID, Status: models.ProductStatusActive})
	if err != nil {
		log.Printf("collection: products query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch collection products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection": co, "products": products})
}

// UpdateCollection is the handler for PUT /v1/admin/collections/:id.
func (h *Handlers) UpdateCollection(c *gin.Context) {
	var input models.CreateCollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	result, err := h.DB.Exec(
		"UPDATE collections SET name = ?, slug = ?, description = ?, image_url = ?, updated_at = ? WHERE id = ?",
		input.Name, slug.Make(input.Name), input.Description, input.ImageURL, time.Now(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusConflict, fail("A collection with this name already exists"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM collections WHERE id = ?", c.Param("id")).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Collection not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection updated"})
}

// DeleteCollection is the handler for DELETE /v1/admin/collections/:id.
func (h *Handlers) DeleteCollection(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM collections WHERE id = ?", c.Param("id"))
	if err != nil {
		log.Printf("collection delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete collection"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Collection not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted"})
}

type CollectionProductInput struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// AddProductToCollection is the handler for POST /v1/admin/collections/:id/products.
func (h *Handlers) AddProductToCollection(c *gin.Context) {
	var input CollectionProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	// INSERT IGNORE keeps re-adding idempotent; the FK pair rejects
	// unknown collections/products.
	result, err := h.DB.Exec(
		"INSERT IGNORE INTO collection_products (collection_id, product_id) VALUES (?, ?)",
		c.Param("id"), input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("Unknown collection or product"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Product already in collection"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product added to collection"})
}

// RemoveProductFromCollection is the handler for
// DELETE /v1/admin/collections/:id/products/:product_id.
func (h *Handlers) RemoveProductFromCollection(c *gin.Context) {
	result, err := h.DB.Exec(
		"DELETE FROM collection_products WHERE collection_id = ? AND product_id = ?",
		c.Param("id"), c.Param("product_id"))
	if err != nil {
		log.Printf("collection remove product: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update collection"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Product not in collection"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed from collection"})
}
