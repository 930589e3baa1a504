package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/models"
)

// ProfileHandler manages user profile and address endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the authenticated user with their profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"profile":    user.Profile,
			"created_at": user.CreatedAt,
		},
	})
}

type updateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Bio        string `json:"bio"`
	Gender     string `json:"gender"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// UpdateProfile updates user and profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userUpdates := map[string]interface{}{}
	if req.FirstName != "" {
		userUpdates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		userUpdates["last_name"] = req.LastName
	}
	if len(userUpdates) > 0 {
		userUpdates["updated_at"] = time.Now()
		if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
			return err
		}
	}

	profileUpdates := map[string]interface{}{}
	if req.Bio != "" {
		profileUpdates["bio"] = req.Bio
	}
	if req.Gender != "" {
		profileUpdates["gender"] = req.Gender
	}
	if req.City != "" {
		profileUpdates["city"] = req.City
	}
	if req.State != "" {
		profileUpdates["state"] = req.State
	}
	if req.PostalCode != "" {
		profileUpdates["postal_code"] = req.PostalCode
	}
	if req.Country != "" {
		profileUpdates["country"] = req.Country
	}
	if len(profileUpdates) > 0 {
		profileUpdates["updated_at"] = time.Now()
		if err := h.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(profileUpdates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// Address endpoints

// ListAddresses returns the user's addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.Address
	if err := h.db.Where("user_id = ?", userID).
		Order("is_default desc, created_at desc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

type addressRequest struct {
	AddressType  string `json:"address_type"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

// CreateAddress adds a new address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.FullName == "" || req.AddressLine1 == "" || req.City == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	address := models.Address{
		UserID:       userID,
		AddressType:  req.AddressType,
		FullName:     req.FullName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	}
	if address.AddressType == "" {
		address.AddressType = "home"
	}
	if address.Country == "" {
		address.Country = "India"
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// Unsetting other defaults is an explicit step, not a save hook.
		if address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress updates an owned address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var address models.Address
	if err := h.db.First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"address_type":  req.AddressType,
			"full_name":     req.FullName,
			"phone":         req.Phone,
			"address_line1": req.AddressLine1,
			"address_line2": req.AddressLine2,
			"city":          req.City,
			"state":         req.State,
			"postal_code":   req.PostalCode,
			"country":       req.Country,
			"is_default":    req.IsDefault,
			"updated_at":    time.Now(),
		}
		return tx.Model(&models.Address{}).Where("id = ?", address.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "address updated"})
}

// DeleteAddress removes an owned address. Orders keep their snapshot.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}
