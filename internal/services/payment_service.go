package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/abhirang/internal/models"
)

// Sentinel errors for the payment bridge.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyPaid      = errors.New("order already paid")
	ErrSignatureInvalid = errors.New("signature verification failed")
)

// Webhook event names delivered by the gateway.
const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookPaymentFailed   = "payment.failed"
)

var minorUnitFactor = decimal.NewFromInt(100)

// WebhookEvent mirrors the gateway's webhook body.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentService owns the payment lifecycle: intent creation and the
// settlement state machine driven by gateway callbacks and webhooks.
type PaymentService struct {
	db       *gorm.DB
	gateway  *GatewayClient
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, gateway *GatewayClient, currency string, logger *zap.Logger) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, logger: logger, currency: currency, now: time.Now}
}

// Initiate creates (or reuses) the payment record for an order and obtains a
// gateway intent. It is idempotent: an existing gateway order id is reused
// rather than creating a duplicate remote intent. A gateway failure is
// returned to the caller and leaves the order untouched. Cash-on-delivery
// never touches the gateway; the order is confirmed with payment collected
// at the door.
func (s *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, orderNumber, method string) (*models.Payment, error) {
	if method == "" {
		method = models.PaymentMethodRazorpay
	}

	var order models.Order
	err := s.db.WithContext(ctx).
		First(&order, "order_number = ? AND user_id = ?", orderNumber, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.PaymentStatus == models.OrderPaymentPaid {
		return nil, ErrAlreadyPaid
	}

	if method == models.PaymentMethodCOD {
		return s.initiateCOD(ctx, &order, userID)
	}

	var payment models.Payment
	err = s.db.WithContext(ctx).Where("order_id = ?", order.ID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = models.Payment{
			OrderID:       order.ID,
			UserID:        userID,
			PaymentMethod: method,
			Amount:        order.TotalAmount,
			Currency:      s.currency,
			Status:        models.PaymentStatusPending,
		}
		if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	// An order already recorded as cash-on-delivery never gets a gateway
	// intent.
	if payment.PaymentMethod == models.PaymentMethodCOD {
		return &payment, nil
	}

	if payment.GatewayOrderID != "" {
		return &payment, nil
	}

	amountMinor := order.TotalAmount.Mul(minorUnitFactor).Round(0).IntPart()
	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, payment.Currency, map[string]string{
		"order_number": order.OrderNumber,
		"user_id":      userID.String(),
	})
	if err != nil {
		s.logger.Error("gateway intent creation failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	updates := map[string]interface{}{
		"gateway_order_id": gatewayOrder.ID,
		"status":           models.PaymentStatusProcessing,
	}
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	payment.GatewayOrderID = gatewayOrder.ID
	payment.Status = models.PaymentStatusProcessing
	return &payment, nil
}

// initiateCOD records the cash-on-delivery payment and confirms the order in
// one transaction; a partial write cannot leave a payment without its
// confirmed order.
func (s *PaymentService) initiateCOD(ctx context.Context, order *models.Order, userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("order_id = ?", order.ID).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			payment = models.Payment{
				OrderID:       order.ID,
				UserID:        userID,
				PaymentMethod: models.PaymentMethodCOD,
				Amount:        order.TotalAmount,
				Currency:      s.currency,
				Status:        models.PaymentStatusPending,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// A payment already routed through the gateway stays there; it is
		// returned untouched instead of being downgraded to COD.
		if payment.PaymentMethod != models.PaymentMethodCOD {
			return nil
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", models.OrderStatusConfirmed).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// HandleCallback settles the user-facing redirect from the gateway. The
// signature over (gateway_order_id, gateway_payment_id) must verify before
// the payment can be trusted; a bad signature marks the payment failed and
// can never mark an order paid.
func (s *PaymentService) HandleCallback(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*models.Payment, error) {
	if !VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, s.gateway.KeySecret()) {
		if err := s.settleFailure(ctx, gatewayOrderID, "", "signature verification failed"); err != nil && !errors.Is(err, ErrPaymentNotFound) {
			return nil, err
		}
		return nil, ErrSignatureInvalid
	}

	if err := s.settleSuccess(ctx, gatewayOrderID, gatewayPaymentID, signature); err != nil {
		return nil, err
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).
		Preload("Order").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// HandleWebhook applies an out-of-band gateway event. Replayed events and
// unknown gateway order ids are no-ops, never errors: the gateway retries
// anything that does not return success.
func (s *PaymentService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	entity := event.Payload.Payment.Entity

	switch event.Event {
	case WebhookPaymentCaptured:
		err := s.settleSuccess(ctx, entity.OrderID, entity.ID, "")
		if errors.Is(err, ErrPaymentNotFound) {
			s.logger.Warn("webhook for unknown gateway order", zap.String("gateway_order_id", entity.OrderID))
			return nil
		}
		return err
	case WebhookPaymentFailed:
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed"
		}
		err := s.settleFailure(ctx, entity.OrderID, entity.ID, reason)
		if errors.Is(err, ErrPaymentNotFound) {
			s.logger.Warn("webhook for unknown gateway order", zap.String("gateway_order_id", entity.OrderID))
			return nil
		}
		return err
	default:
		// Unhandled event types are acknowledged without action.
		return nil
	}
}

// settleSuccess transitions payment -> success and order -> confirmed/paid
// in one transaction. An already-successful payment is a no-op so replayed
// confirmations converge instead of double-fulfilling.
func (s *PaymentService) settleSuccess(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) error {
	payment, err := s.findByGatewayOrder(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentStatusSuccess {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", gatewayOrderID).
			First(&locked).Error; err != nil {
			return err
		}
		// Re-check under the lock: the concurrent callback/webhook race is
		// decided here, whichever path commits first wins.
		if locked.Status == models.PaymentStatusSuccess {
			return nil
		}

		now := s.now()
		paymentUpdates := map[string]interface{}{
			"status":  models.PaymentStatusSuccess,
			"paid_at": &now,
		}
		if gatewayPaymentID != "" {
			paymentUpdates["gateway_payment_id"] = gatewayPaymentID
		}
		if signature != "" {
			paymentUpdates["gateway_signature"] = signature
		}
		if err := tx.Model(&models.Payment{}).
			Where("id = ?", locked.ID).
			Updates(paymentUpdates).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("id = ?", locked.OrderID).
			Updates(map[string]interface{}{
				"status":         models.OrderStatusConfirmed,
				"payment_status": models.OrderPaymentPaid,
				"paid_at":        &now,
			}).Error; err != nil {
			return err
		}

		s.logger.Info("payment settled",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("gateway_payment_id", gatewayPaymentID))
		return nil
	})
}

// settleFailure transitions payment -> failed and order -> cancelled/failed.
// A payment that already reached success or failed is left as-is.
func (s *PaymentService) settleFailure(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) error {
	payment, err := s.findByGatewayOrder(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentStatusSuccess || payment.Status == models.PaymentStatusFailed {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", gatewayOrderID).
			First(&locked).Error; err != nil {
			return err
		}
		if locked.Status == models.PaymentStatusSuccess || locked.Status == models.PaymentStatusFailed {
			return nil
		}

		paymentUpdates := map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
		}
		if gatewayPaymentID != "" {
			paymentUpdates["gateway_payment_id"] = gatewayPaymentID
		}
		if err := tx.Model(&models.Payment{}).
			Where("id = ?", locked.ID).
			Updates(paymentUpdates).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("id = ?", locked.OrderID).
			Updates(map[string]interface{}{
				"status":         models.OrderStatusCancelled,
				"payment_status": models.OrderPaymentFailed,
			}).Error; err != nil {
			return err
		}

		s.logger.Warn("payment failed",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("reason", reason))
		return nil
	})
}

func (s *PaymentService) findByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	if gatewayOrderID == "" {
		return nil, ErrPaymentNotFound
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}
