package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/models"
	"github.com/example/abhirang/internal/utils"
)

// CatalogHandler serves read-only category and product endpoints.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns active categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.db.Where("is_active = ?", true).
		Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// ListProducts returns available products with optional category and search
// filters, paginated.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Product{}).Where("is_available = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", category)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("products.name ILIKE ? OR products.description ILIKE ?", like, like)
	}
	if c.QueryBool("featured") {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Images").
		Order("products.created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct returns a single product by slug.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var product models.Product
	err := h.db.Preload("Images").Preload("Category").
		First(&product, "slug = ? AND is_available = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}
