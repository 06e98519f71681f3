package handlers

import (
	"database/sql"
	"testing"

	"github.com/glowora/glowora-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func cat(id int64, name string, parent *int64) models.Category {
	c := models.Category{ID: id, Name: name}
	if parent != nil {
		c.ParentID = sql.NullInt64{Int64: *parent, Valid: true}
	}
	return c
}

func TestBuildCategoryTree(t *testing.T) {
	p1 := int64(1)
	p9 := int64(9) // no category with this ID exists

	t.Run("nests children under parents", func(t *testing.T) {
		tree := buildCategoryTree([]models.Category{
			cat(1, "Skincare", nil),
			cat(2, "Cleansers", &p1),
			cat(3, "Serums", &p1),
			cat(4, "Makeup", nil),
		})

		assert.Len(t, tree, 2)
		assert.Equal(t, "Skincare", tree[0].Name)
		assert.Len(t, tree[0].Children, 2)
		assert.Equal(t, "Cleansers", tree[0].Children[0].Name)
		assert.Empty(t, tree[1].Children)
	})

	t.Run("orphans surface as roots", func(t *testing.T) {
		tree := buildCategoryTree([]models.Category{
			cat(2, "Cleansers", &p9),
		})

		assert.Len(t, tree, 1)
		assert.Equal(t, "Cleansers", tree[0].Name)
	})

	t.Run("empty input yields empty slice", func(t *testing.T) {
		assert.Equal(t, []models.Category{}, buildCategoryTree(nil))
	})
}
