package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/abhirang/internal/middleware"
	"github.com/example/abhirang/internal/models"
	"github.com/example/abhirang/internal/services"
)

// PaymentHandler bridges HTTP to the payment lifecycle: intent creation,
// the browser callback, and gateway webhooks.
type PaymentHandler struct {
	payments *services.PaymentService
	keyID    string
}

// NewPaymentHandler constructs PaymentHandler. keyID is the public gateway
// key handed to the browser checkout widget.
func NewPaymentHandler(payments *services.PaymentService, keyID string) *PaymentHandler {
	return &PaymentHandler{payments: payments, keyID: keyID}
}

type initiatePaymentRequest struct {
	OrderNumber   string `json:"order_number"`
	PaymentMethod string `json:"payment_method"`
}

// Initiate creates or reuses a gateway payment intent for an order.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_number is required")
	}
	switch req.PaymentMethod {
	case "", models.PaymentMethodRazorpay, models.PaymentMethodCOD:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported payment method")
	}

	payment, err := h.payments.Initiate(c.Context(), userID, req.OrderNumber, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrAlreadyPaid):
			return fiber.NewError(fiber.StatusBadRequest, "order is already paid")
		default:
			return fiber.NewError(fiber.StatusBadGateway, "payment gateway is unavailable, please try again")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"key_id":           h.keyID,
			"payment_method":   payment.PaymentMethod,
			"gateway_order_id": payment.GatewayOrderID,
			"amount":           payment.Amount,
			"currency":         payment.Currency,
			"status":           payment.Status,
		},
	})
}

type paymentCallbackRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" form:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature" form:"razorpay_signature"`
}

// Callback settles the payment the browser reports after gateway checkout.
// The signature must verify against our key secret before anything is
// trusted.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req paymentCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing payment verification fields")
	}

	payment, err := h.payments.HandleCallback(c.Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignatureInvalid):
			return fiber.NewError(fiber.StatusBadRequest, "payment verification failed")
		case errors.Is(err, services.ErrPaymentNotFound):
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		default:
			return err
		}
	}

	if payment.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "payment not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_number":   payment.Order.OrderNumber,
			"payment_status": payment.Status,
			"order_status":   payment.Order.Status,
		},
	})
}

// Webhook applies out-of-band gateway events. The raw body signature is
// checked by middleware before this handler runs. The gateway retries any
// non-2xx response, so processable events always acknowledge with 200.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var event services.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid webhook body")
	}

	if err := h.payments.HandleWebhook(c.Context(), event); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
