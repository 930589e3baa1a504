package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/models"
)

// CartHandler manages the per-user shopping cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

func (h *CartHandler) getOrCreateCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := h.db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := h.db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (h *CartHandler) cartResponse(c *fiber.Ctx, cartID uuid.UUID) error {
	var cart models.Cart
	if err := h.db.Preload("Items.Product.Images").First(&cart, "id = ?", cartID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":          cart.ID,
			"coupon_code": cart.CouponCode,
			"items":       cart.Items,
			"subtotal":    cart.Subtotal(),
			"total_items": cart.TotalItems(),
		},
	})
}

// GetCart returns the user's cart, creating it lazily.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.getOrCreateCart(userID)
	if err != nil {
		return err
	}

	return h.cartResponse(c, cart.ID)
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

// AddItem adds a product to the cart, merging quantity when the same
// (product, size) line already exists.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.db.First(&product, "id = ? AND is_available = ?", productID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	cart, err := h.getOrCreateCart(userID)
	if err != nil {
		return err
	}

	var item models.CartItem
	err = h.db.Where("cart_id = ? AND product_id = ? AND size = ?", cart.ID, product.ID, req.Size).
		First(&item).Error
	switch {
	case err == nil:
		if err := h.db.Model(&item).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", req.Quantity)).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Size:      req.Size,
			Quantity:  req.Quantity,
		}
		if err := h.db.Create(&item).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return h.cartResponse(c, cart.ID)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a cart line's quantity; zero removes the line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must not be negative")
	}

	var item models.CartItem
	err = h.db.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	if req.Quantity == 0 {
		if err := h.db.Delete(&item).Error; err != nil {
			return err
		}
	} else {
		if err := h.db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
			return err
		}
	}

	return h.cartResponse(c, item.CartID)
}

// RemoveItem deletes a cart line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	err = h.db.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	if err := h.db.Delete(&item).Error; err != nil {
		return err
	}

	return h.cartResponse(c, item.CartID)
}

// ClearCart removes all items and any applied coupon.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cart models.Cart
	if err := h.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true, "message": "cart cleared"})
		}
		return err
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("coupon_code", "").Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "cart cleared"})
}
