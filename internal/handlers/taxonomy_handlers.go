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
// --- Category Handlers ---
//

// CreateCategory is the handler for POST /v1/admin/categories.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input models.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	if input.ParentID != nil {
		var exists int
		err := h.DB.QueryRow("SELECT COUNT(*) FROM categories WHERE id = ?", *input.ParentID).Scan(&exists)
		if err != nil || exists == 0 {
			c.JSON(http.StatusBadRequest, failFields("Parent category does not exist", map[string]string{"parentId": "unknown category"}))
			return
		}
	}

	now := time.Now()
	result, err := h.DB.Exec(
		"INSERT INTO categories (name, slug, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		input.Name, slug.Make(input.Name), input.ParentID, now, now)
	if err != nil {
		c.JSON(http.StatusConflict, fail("A category with this name already exists"))
		return
	}
	id, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "id": id})
}

// GetAllCategories is the handler for GET /v1/categories. The flat rows are
// assembled into a tree for the storefront navigation.
func (h *Handlers) GetAllCategories(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, slug, parent_id, created_at, updated_at FROM categories ORDER BY name ASC")
	if err != nil {
		log.Printf("categories: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch categories"))
		return
	}
	defer rows.Close()

	var all []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			log.Printf("categories: scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch categories"))
			return
		}
		all = append(all, cat)
	}

	c.JSON(http.StatusOK, gin.H{"categories": buildCategoryTree(all)})
}

// buildCategoryTree nests child categories under their parents. Orphans
// (parent deleted) surface as roots rather than disappearing.
func buildCategoryTree(all []models.Category) []models.Category {
	byParent := make(map[int64][]models.Category)
	ids := make(map[int64]bool, len(all))
	for _, cat := range all {
		ids[cat.ID] = true
	}

	var roots []models.Category
	for _, cat := range all {
		if cat.ParentID.Valid && ids[cat.ParentID.Int64] {
			byParent[cat.ParentID.Int64] = append(byParent[cat.ParentID.Int64], cat)
		} else {
			roots = append(roots, cat)
		}
	}

	var attach func(cats []models.Category) []models.Category
	attach = func(cats []models.Category) []models.Category {
		for i := range cats {
			cats[i].Children = attach(byParent[cats[i].ID])
		}
		return cats
	}

	if roots == nil {
		return []models.Category{}
	}
	return attach(roots)
}

// UpdateCategory is the handler for PUT /v1/admin/categories/:id.
func (h *Handlers) UpdateCategory(c *gin.Context) {
	var input models.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	result, err := h.DB.Exec(
		"UPDATE categories SET name = ?, slug = ?, parent_id = ?, updated_at = ? WHERE id = ?",
		input.Name, slug.Make(input.Name), input.ParentID, time.Now(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusConflict, fail("A category with this name already exists"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM categories WHERE id = ?", c.Param("id")).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Category not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

// DeleteCategory is the handler for DELETE /v1/admin/categories/:id.
// Children are re-rooted (parent_id set NULL by the FK), products keep
// existing with category_id NULL.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM categories WHERE id = ?", c.Param("id"))
	if err != nil {
		log.Printf("category delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete category"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Category not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// getCategoryBySlug resolves a category for the public catalog filter.
func (h *Handlers) getCategoryBySlug(s string) (*models.Category, error) {
	var cat models.Category
	err := h.DB.QueryRow("SELECT id, name, slug, parent_id, created_at, updated_at FROM categories WHERE slug = ?", s).
		Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}
