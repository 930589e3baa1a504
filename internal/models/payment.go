package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	PaymentMethodRazorpay = "razorpay"
	PaymentMethodCOD      = "cod"
)

// Payment statuses. pending -> processing -> success | failed,
// success -> refunded via the refund subsystem.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSuccess    = "success"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// Refund statuses.
const (
	RefundStatusPending    = "pending"
	RefundStatusProcessing = "processing"
	RefundStatusCompleted  = "completed"
	RefundStatusRejected   = "rejected"
)

// Payment tracks the gateway payment for an order, 1:1. Status transitions
// are the only mutable part after creation.
type Payment struct {
	BaseModel
	OrderID       uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order         *Order          `json:"order,omitempty"`
	UserID        uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Currency      string          `gorm:"default:INR" json:"currency"`
	Status        string          `gorm:"default:pending" json:"status"`

	GatewayOrderID   string `gorm:"index" json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`

	FailureReason string     `json:"failure_reason"`
	PaidAt        *time.Time `json:"paid_at"`

	Refunds []PaymentRefund `json:"refunds,omitempty"`
}

// PaymentRefund tracks a refund under a payment; refunds have their own
// lifecycle independent of the parent payment status.
type PaymentRefund struct {
	BaseModel
	PaymentID       uuid.UUID       `gorm:"type:uuid;index" json:"payment_id"`
	GatewayRefundID string          `json:"gateway_refund_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Reason          string          `json:"reason"`
	Status          string          `gorm:"default:pending" json:"status"`
	ProcessedAt     *time.Time      `json:"processed_at"`
}
