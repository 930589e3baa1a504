package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/models"
	"github.com/example/abhirang/internal/utils"
)

// OrderHandler serves the authenticated user's order history.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

// ListOrders returns the user's orders, newest first, paginated.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	err := h.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order by its public number, scoped to the
// authenticated user so order numbers cannot be enumerated across accounts.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderNumber := c.Params("orderNumber")

	var order models.Order
	err := h.db.Preload("Items").Preload("Payment").
		First(&order, "order_number = ? AND user_id = ?", orderNumber, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
