package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/abhirang/internal/models"
)

func newMockedPaymentService(t *testing.T) (*PaymentService, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	gateway := NewGatewayClient("http://gateway.invalid", "key_id", "key_secret")
	return NewPaymentService(gdb, gateway, "INR", zaptest.NewLogger(t)), mock
}

func TestHandleWebhookReplayedCaptureIsNoOp(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	rows := sqlmock.NewRows([]string{"id", "order_id", "user_id", "status", "gateway_order_id"}).
		AddRow(uuid.NewString(), uuid.NewString(), uuid.NewString(), models.PaymentStatusSuccess, "order_settled")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments" WHERE gateway_order_id = $1`)).
		WithArgs("order_settled", 1).
		WillReturnRows(rows)

	var event WebhookEvent
	event.Event = WebhookPaymentCaptured
	event.Payload.Payment.Entity.ID = "pay_replay"
	event.Payload.Payment.Entity.OrderID = "order_settled"

	// Already-successful payment short-circuits before any write.
	err := svc.HandleWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhookUnknownGatewayOrderIsAcknowledged(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments" WHERE gateway_order_id = $1`)).
		WithArgs("order_unknown", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var event WebhookEvent
	event.Event = WebhookPaymentCaptured
	event.Payload.Payment.Entity.ID = "pay_x"
	event.Payload.Payment.Entity.OrderID = "order_unknown"

	err := svc.HandleWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhookUnhandledEventIsIgnored(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	var event WebhookEvent
	event.Event = "refund.processed"

	err := svc.HandleWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhookFailureWithoutPaymentIsAcknowledged(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments" WHERE gateway_order_id = $1`)).
		WithArgs("order_gone", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var event WebhookEvent
	event.Event = WebhookPaymentFailed
	event.Payload.Payment.Entity.OrderID = "order_gone"

	err := svc.HandleWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackRejectsBadSignatureForUnknownPayment(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	// settleFailure looks the payment up before writing anything; with no
	// matching row the bad signature is still reported to the caller.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments" WHERE gateway_order_id = $1`)).
		WithArgs("order_abc", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.HandleCallback(context.Background(), "order_abc", "pay_xyz", "not-a-valid-signature")
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateCODConfirmsOrderInOneTransaction(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	userID := uuid.New()
	orderID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE order_number = $1 AND user_id = $2`)).
		WithArgs("ORD-20260615-ABCDEF234567", userID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "order_number", "total_amount", "status", "payment_status"}).
			AddRow(orderID.String(), userID.String(), "ORD-20260615-ABCDEF234567", "920.00", models.OrderStatusPending, models.OrderPaymentPending))

	// Payment lookup and the order confirmation share one transaction.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments" WHERE order_id = $1`)).
		WithArgs(orderID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "payment_method", "amount", "currency", "status"}).
			AddRow(uuid.NewString(), orderID.String(), userID.String(), models.PaymentMethodCOD, "920.00", "INR", models.PaymentStatusPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WithArgs(models.OrderStatusConfirmed, sqlmock.AnyArg(), orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, err := svc.Initiate(context.Background(), userID, "ORD-20260615-ABCDEF234567", models.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCOD, payment.PaymentMethod)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Empty(t, payment.GatewayOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhookEmptyGatewayOrderID(t *testing.T) {
	svc, mock := newMockedPaymentService(t)

	var event WebhookEvent
	event.Event = WebhookPaymentCaptured

	// Empty gateway order id resolves to payment-not-found without a query.
	err := svc.HandleWebhook(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
