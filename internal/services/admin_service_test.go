package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/testutil"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

func TestAdminDashboardStats(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.db)

	inactive := testutil.CreateUser(t, f.db, "gone@example.com")
	require.NoError(t, f.db.Model(inactive).Update("is_active", false).Error)

	f.pay(t, "10")
	refunded := f.pay(t, "20")
	_, err := f.svc.Refund(ctx, refunded.TransactionID, RefundRequest{Requester: f.ownerRequester()})
	require.NoError(t, err)

	f.gateway.AuthorizeFn = func(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
		return &AuthorizeResult{DeclineReason: "card_declined"}, nil
	}
	_, err = f.svc.CreatePayment(ctx, CreatePaymentRequest{
		UserID: f.owner.ID, OrderID: "declined", Amount: decimal.NewFromInt(5), PaymentToken: "t",
	})
	require.NoError(t, err)

	brand := testutil.CreateBrand(t, f.db, "Maison Verre", "maison-verre", false)
	testutil.CreateProduct(t, f.db, brand, "Tote")
	testutil.CreateProduct(t, f.db, brand, "Retired", testutil.Inactive())

	stats, err := admin.GetDashboardStats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.ActiveUsers)
	assert.EqualValues(t, 2, stats.NewUsersThisMonth)
	assert.EqualValues(t, 3, stats.TotalPayments)
	assert.EqualValues(t, 1, stats.SucceededPayments)
	assert.EqualValues(t, 1, stats.FailedPayments)
	assert.EqualValues(t, 1, stats.RefundedPayments)
	assert.EqualValues(t, 1, stats.ActiveProducts)
}

func TestAdminListPaymentsFiltersByStatus(t *testing.T) {
	f := newPaymentFixture(t)
	admin := NewAdminService(f.db)
	other := testutil.CreateUser(t, f.db, "other@example.com")

	f.pay(t, "10")
	f.pay(t, "20")
	_, err := f.svc.CreatePayment(context.Background(), CreatePaymentRequest{
		UserID: other.ID, OrderID: "o", Amount: decimal.NewFromInt(30), PaymentToken: "t",
	})
	require.NoError(t, err)

	all, total, err := admin.ListPayments(context.Background(), AdminPaymentFilter{
		PaginationParams: utils.PaginationParams{Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	status := models.PaymentStatusSucceeded
	owned, total, err := admin.ListPayments(context.Background(), AdminPaymentFilter{
		PaginationParams: utils.PaginationParams{Limit: 10},
		Status:           &status,
		UserID:           &other.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, owned, 1)
	assert.Equal(t, other.ID, owned[0].UserID)
}

func TestAdminAuditLogs(t *testing.T) {
	db := testutil.NewTestDB(t)
	admin := NewAdminService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ada@example.com")

	require.NoError(t, admin.RecordAuditLog(ctx, &models.AuditLog{
		UserID: &user.ID, Action: "POST /v1/payments/google-pay/payment", ResourceType: "payments", StatusCode: 200,
	}))
	require.NoError(t, admin.RecordAuditLog(ctx, &models.AuditLog{
		Action: "POST /v1/auth/login", ResourceType: "auth", StatusCode: 401,
	}))

	logs, total, err := admin.ListAuditLogs(ctx, AdminAuditLogFilter{
		PaginationParams: utils.PaginationParams{Limit: 10},
		ResourceType:     "payments",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, user.ID, *logs[0].UserID)

	_, total, err = admin.ListAuditLogs(ctx, AdminAuditLogFilter{PaginationParams: utils.PaginationParams{Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
