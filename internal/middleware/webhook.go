package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/abhirang/internal/services"
)

// WebhookSignatureMiddleware verifies the gateway's signature header over the
// raw request body before the webhook handler runs. A webhook with a missing
// or invalid signature is rejected outright; no payment state is touched.
func WebhookSignatureMiddleware(webhookSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Razorpay-Signature")
		if signature == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing webhook signature")
		}

		if !services.VerifyWebhookSignature(c.Body(), signature, webhookSecret) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid webhook signature")
		}

		return c.Next()
	}
}
