package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/models"
)

type sentEmail struct {
	to, subject, body string
}

func newCapturingNotifier() (*NotificationService, *[]sentEmail) {
	var sent []sentEmail
	svc := NewNotificationService(config.EmailConfig{}, "https://app.jingjai.test")
	svc.send = func(to, subject, body string) error {
		sent = append(sent, sentEmail{to, subject, body})
		return nil
	}
	return svc, &sent
}

func TestRefundIssuedEmail(t *testing.T) {
	svc, sent := newCapturingNotifier()
	user := &models.User{Name: "Ada", Email: "ada@example.com"}
	payment := &models.Payment{TransactionID: "txn_abc", AmountMinor: 10000, Currency: "USD"}
	refund := &models.Refund{RefundID: "rfnd_1", AmountMinor: 2550, Currency: "USD", Reason: "<damaged>"}

	require.NoError(t, svc.RefundIssued(context.Background(), user, payment, refund))
	require.Len(t, *sent, 1)

	email := (*sent)[0]
	assert.Equal(t, "ada@example.com", email.to)
	assert.Equal(t, "Your JINGJAI refund", email.subject)
	assert.Contains(t, email.body, "25.5 USD")
	assert.Contains(t, email.body, "txn_abc")
	assert.Contains(t, email.body, "&lt;damaged&gt;")
}

func TestAuthenticationCompletedEmail(t *testing.T) {
	svc, sent := newCapturingNotifier()
	result := models.AuthenticationResultAuthentic
	record := &models.AuthenticationRecord{BrandName: "Maison Verre", ProductName: "Tote", AuthenticationResult: &result}

	require.NoError(t, svc.AuthenticationCompleted(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com"}, record))
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].body, "AUTHENTIC")
	assert.Contains(t, (*sent)[0].body, "https://app.jingjai.test/profile")
}

func TestDeliverRespectsCancelledContext(t *testing.T) {
	svc, sent := newCapturingNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendWelcomeEmail(ctx, &models.User{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}
