package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/models"
	"github.com/gosimple/slug"
)

//
// --- Product Handlers ---
//

const defaultPageSize = 24

// productQuery collects the filters the storefront and dashboard lists
// support.
type productQuery struct {
	Status       string
	BrandID      *int64
	CategoryID   *int64
	CollectionID *int64
	Search       string
	Page         int
	PerPage      int
}

// listProducts runs the shared product listing query. The caller decides
// which filters apply; money and stock come straight from the row since
// the public list shows catalog (not frozen) prices.
func (h *Handlers) listProducts(q productQuery) ([]models.Product, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT p.id, p.name, p.slug, p.description, p.product_type, p.status,
			p.brand_id, p.category_id, p.sku, p.price, p.sale_price, p.in_stock,
			p.created_at, p.updated_at, b.name, c.name,
			(SELECT url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.sort_order LIMIT 1)
		FROM products p
		LEFT JOIN brands b ON p.brand_id = b.id
		LEFT JOIN categories c ON p.category_id = c.id`)

	var conds []string
	var args []interface{}

	if q.CollectionID != nil {
		sb.WriteString(" JOIN collection_products cp ON cp.product_id = p.id")
		conds = append(conds, "cp.collection_id = ?")
		args = append(args, *q.CollectionID)
	}
	if q.Status != "" {
		conds = append(conds, "p.status = ?")
		args = append(args, q.Status)
	}
	if q.BrandID != nil {
		conds = append(conds, "p.brand_id = ?")
		args = append(args, *q.BrandID)
	}
	if q.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.Search != "" {
		conds = append(conds, "(p.name LIKE ? OR p.description LIKE ?)")
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY p.created_at DESC")

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, perPage, (page-1)*perPage)

	rows, err := h.DB.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var brandName, categoryName, coverURL sql.NullString
		var sku sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.ProductType, &p.Status,
			&p.BrandID, &p.CategoryID, &sku, &p.Price, &p.SalePrice, &p.InStock,
			&p.CreatedAt, &p.UpdatedAt, &brandName, &categoryName, &coverURL,
		); err != nil {
			return nil, err
		}
		if sku.Valid {
			p.SKU = &sku.String
		}
		if brandName.Valid {
			p.BrandName = &brandName.String
		}
		if categoryName.Valid {
			p.CategoryName = &categoryName.String
		}
		if coverURL.Valid {
			p.Images = []models.ProductImage{{ProductID: p.ID, URL: coverURL.String}}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListProducts is the handler for GET /v1/products (public). Only active
// products are listed; brand/category filters take slugs, search matches
// name and description.
func (h *Handlers) ListProducts(c *gin.Context) {
	q := productQuery{Status: models.ProductStatusActive, Search: c.Query("search")}

	if bs := c.Query("brand"); bs != "" {
		brand, err := h.getBrandBySlug(bs)
		if err != nil {
			log.Printf("products: brand lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch products"))
			return
		}
		if brand == nil {
			c.JSON(http.StatusOK, gin.H{"products": []models.Product{}})
			return
		}
		q.BrandID = &brand.ID
	}
	if cs := c.Query("category"); cs != "" {
		category, err := h.getCategoryBySlug(cs)
		if err != nil {
			log.Printf("products: category lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to fetch products"))
			return
		}
		if category == nil {
			c.JSON(http.StatusOK, gin.H{"products": []models.Product{}})
			return
		}
		q.CategoryID = &category.ID
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PerPage, _ = strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(defaultPageSize)))

	products, err := h.listProducts(q)
	if err != nil {
		log.Printf("products: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "page": q.Page})
}

// AdminListProducts is the handler for GET /v1/admin/products: same query,
// but every status is visible and status itself is filterable.
func (h *Handlers) AdminListProducts(c *gin.Context) {
	q := productQuery{Status: c.Query("status"), Search: c.Query("search")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PerPage, _ = strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(defaultPageSize)))

	products, err := h.listProducts(q)
	if err != nil {
		log.Printf("admin products: list failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "page": q.Page})
}

// GetProductBySlug is the handler for GET /v1/products/:slug. Returns the
// product with all images and, for configurable products, all variants.
func (h *Handlers) GetProductBySlug(c *gin.Context) {
	var p models.Product
	var sku sql.NullString
	var brandName, categoryName sql.NullString

	err := h.DB.QueryRow(`
		SELECT p.id, p.name, p.slug, p.description, p.product_type, p.status,
			p.brand_id, p.category_id, p.sku, p.price, p.sale_price, p.in_stock,
			p.created_at, p.updated_at, b.name, c.name
		FROM products p
		LEFT JOIN brands b ON p.brand_id = b.id
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.slug = ? AND p.status = 'active'`,
		c.Param("slug"),
	).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.ProductType, &p.Status,
		&p.BrandID, &p.CategoryID, &sku, &p.Price, &p.SalePrice, &p.InStock,
		&p.CreatedAt, &p.UpdatedAt, &brandName, &categoryName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Product not found"))
			return
		}
		log.Printf("product: query failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch product"))
		return
	}
	if sku.Valid {
		p.SKU = &sku.String
	}
	if brandName.Valid {
		p.BrandName = &brandName.String
	}
	if categoryName.Valid {
		p.CategoryName = &categoryName.String
	}

	if err := h.attachImagesAndVariants(&p); err != nil {
		log.Printf("product: joins failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to fetch product"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *Handlers) attachImagesAndVariants(p *models.Product) error {
	imgRows, err := h.DB.Query(
		"SELECT id, product_id, url, sort_order FROM product_images WHERE product_id = ? ORDER BY sort_order",
		p.ID)
	if err != nil {
		return err
	}
	defer imgRows.Close()
	p.Images = []models.ProductImage{}
	for imgRows.Next() {
		var img models.ProductImage
		if err := imgRows.Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder); err != nil {
			return err
		}
		p.Images = append(p.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return err
	}

	if p.ProductType != models.ProductTypeConfigurable {
		return nil
	}

	varRows, err := h.DB.Query(`
		SELECT id, product_id, sku, color, size, price, sale_price, in_stock, created_at, updated_at
		FROM product_variants
		WHERE product_id = ?
		ORDER BY color, size`,
		p.ID)
	if err != nil {
		return err
	}
	defer varRows.Close()
	p.Variants = []models.ProductVariant{}
	for varRows.Next() {
		var v models.ProductVariant
		var vsku sql.NullString
		if err := varRows.Scan(&v.ID, &v.ProductID, &vsku, &v.Color, &v.Size, &v.Price, &v.SalePrice, &v.InStock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return err
		}
		if vsku.Valid {
			v.SKU = &vsku.String
		}
		p.Variants = append(p.Variants, v)
	}
	if err := varRows.Err(); err != nil {
		return err
	}

	for i := range p.Variants {
		viRows, err := h.DB.Query(
			"SELECT id, variant_id, url, sort_order FROM variant_images WHERE variant_id = ? ORDER BY sort_order",
			p.Variants[i].ID)
		if err != nil {
			return err
		}
		for viRows.Next() {
			var vi models.VariantImage
			if err := viRows.Scan(&vi.ID, &vi.VariantID, &vi.URL, &vi.SortOrder); err != nil {
				viRows.Close()
				return err
			}
			p.Variants[i].Images = append(p.Variants[i].Images, vi)
		}
		if err := viRows.Err(); err != nil {
			viRows.Close()
			return err
		}
		viRows.Close()
	}
	return nil
}

// CreateProduct is the handler for POST /v1/admin/products. Product,
// images and variants are written in one transaction; a configurable
// product must ship at least one variant.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input models.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	if input.ProductType == models.ProductTypeSimple && input.Price <= 0 {
		c.JSON(http.StatusBadRequest, failFields("Simple products need a price", map[string]string{"price": "must be positive"}))
		return
	}
	if input.ProductType == models.ProductTypeConfigurable && len(input.Variants) == 0 {
		c.JSON(http.StatusBadRequest, failFields("Configurable products need at least one variant", map[string]string{"variants": "empty"}))
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		log.Printf("product create: begin failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
		return
	}
	defer tx.Rollback()

	now := time.Now()
	productSlug := slug.Make(input.Name)

	// Price/stock for configurable products live on the variants; the
	// parent row keeps zeros.
	price, salePrice, inStock := input.Price, input.SalePrice, input.InStock
	if input.ProductType == models.ProductTypeConfigurable {
		price, salePrice, inStock = 0, nil, 0
	}

	result, err := tx.Exec(`
		INSERT INTO products (name, slug, description, product_type, status, brand_id, category_id, sku, price, sale_price, in_stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'draft', ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Name, productSlug, input.Description, input.ProductType,
		input.BrandID, input.CategoryID, input.SKU, price, salePrice, inStock, now, now)
	if err != nil {
		c.JSON(http.StatusConflict, fail("A product with this name already exists"))
		return
	}
	productID, err := result.LastInsertId()
	if err != nil {
		log.Printf("product create: id failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
		return
	}

	for i, url := range input.Images {
		if _, err := tx.Exec(
			"INSERT INTO product_images (product_id, url, sort_order) VALUES (?, ?, ?)",
			productID, url, i); err != nil {
			log.Printf("product create: image insert failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
			return
		}
	}

	for _, v := range input.Variants {
		vr, err := tx.Exec(`
			INSERT INTO product_variants (product_id, sku, color, size, price, sale_price, in_stock, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			productID, v.SKU, v.Color, v.Size, v.Price, v.SalePrice, v.InStock, now, now)
		if err != nil {
			log.Printf("product create: variant insert failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
			return
		}
		variantID, _ := vr.LastInsertId()
		for i, url := range v.Images {
			if _, err := tx.Exec(
				"INSERT INTO variant_images (variant_id, url, sort_order) VALUES (?, ?, ?)",
				variantID, url, i); err != nil {
				log.Printf("product create: variant image insert failed: %v", err)
				c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("product create: commit failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create product"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "id": productID, "slug": productSlug})
}

// UpdateProduct is the handler for PUT /v1/admin/products/:id. Only the
// provided fields change; renaming regenerates the slug.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var input models.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var sets []string
	var args []interface{}
	add := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if input.Name != nil {
		add("name", *input.Name)
		add("slug", slug.Make(*input.Name))
	}
	if input.Description != nil {
		add("description", *input.Description)
	}
	if input.Status != nil {
		add("status", *input.Status)
	}
	if input.BrandID != nil {
		add("brand_id", *input.BrandID)
	}
	if input.CategoryID != nil {
		add("category_id", *input.CategoryID)
	}
	if input.SKU != nil {
		add("sku", *input.SKU)
	}
	if input.Price != nil {
		add("price", *input.Price)
	}
	if input.SalePrice != nil {
		add("sale_price", *input.SalePrice)
	}
	if input.InStock != nil {
		add("in_stock", *input.InStock)
	}

	if len(sets) == 0 {
		c.JSON(http.StatusBadRequest, fail("No fields to update"))
		return
	}

	add("updated_at", time.Now())
	args = append(args, c.Param("id"))

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := h.DB.Exec(query, args...)
	if err != nil {
		c.JSON(http.StatusConflict, fail("Update conflicts with an existing product"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", c.Param("id")).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Product not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// DeleteProduct is the handler for DELETE /v1/admin/products/:id.
// Products referenced by order history are archived instead of deleted so
// order snapshots keep their provenance.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	var ordered int
	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM order_items WHERE product_id = ? OR variant_id IN (SELECT id FROM product_variants WHERE product_id = ?)",
		productID, productID).Scan(&ordered)
	if err != nil {
		log.Printf("product delete: history check failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete product"))
		return
	}

	if ordered > 0 {
		_, err := h.DB.Exec("UPDATE products SET status = 'archived', updated_at = ? WHERE id = ?", time.Now(), productID)
		if err != nil {
			log.Printf("product delete: archive failed: %v", err)
			c.JSON(http.StatusInternalServerError, fail("Failed to delete product"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product archived (referenced by orders)"})
		return
	}

	result, err := h.DB.Exec("DELETE FROM products WHERE id = ?", productID)
	if err != nil {
		log.Printf("product delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete product"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Product not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

//
// --- Variant Handlers (admin) ---
//

// AddVariant is the handler for POST /v1/admin/products/:id/variants.
func (h *Handlers) AddVariant(c *gin.Context) {
	var input models.VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var productType string
	err := h.DB.QueryRow("SELECT product_type FROM products WHERE id = ?", c.Param("id")).Scan(&productType)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Product not found"))
			return
		}
		log.Printf("variant add: product lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to add variant"))
		return
	}
	if productType != models.ProductTypeConfigurable {
		c.JSON(http.StatusBadRequest, fail("Variants can only be added to configurable products"))
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO product_variants (product_id, sku, color, size, price, sale_price, in_stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Param("id"), input.SKU, input.Color, input.Size, input.Price, input.SalePrice, input.InStock, now, now)
	if err != nil {
		log.Printf("variant add: insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to add variant"))
		return
	}
	variantID, _ := result.LastInsertId()

	for i, url := range input.Images {
		if _, err := h.DB.Exec(
			"INSERT INTO variant_images (variant_id, url, sort_order) VALUES (?, ?, ?)",
			variantID, url, i); err != nil {
			log.Printf("variant add: image insert failed: %v", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Variant added", "id": variantID})
}

// UpdateVariant is the handler for PUT /v1/admin/variants/:id.
func (h *Handlers) UpdateVariant(c *gin.Context) {
	var input models.VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	result, err := h.DB.Exec(`
		UPDATE product_variants
		SET sku = ?, color = ?, size = ?, price = ?, sale_price = ?, in_stock = ?, updated_at = ?
		WHERE id = ?`,
		input.SKU, input.Color, input.Size, input.Price, input.SalePrice, input.InStock, time.Now(), c.Param("id"))
	if err != nil {
		log.Printf("variant update: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to update variant"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		var exists int
		if err := h.DB.QueryRow("SELECT COUNT(*) FROM product_variants WHERE id = ?", c.Param("id")).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, fail("Variant not found"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variant updated"})
}

// DeleteVariant is the handler for DELETE /v1/admin/variants/:id.
func (h *Handlers) DeleteVariant(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM product_variants WHERE id = ?", c.Param("id"))
	if err != nil {
		log.Printf("variant delete: exec failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to delete variant"))
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		c.JSON(http.StatusNotFound, fail("Variant not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variant deleted"})
}
