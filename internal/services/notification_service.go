// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/models"
)

// Notifier delivers customer-facing messages about ledger events.
type Notifier interface {
	PaymentReceipt(ctx context.Context, user *models.User, payment *models.Payment) error
	RefundIssued(ctx context.Context, user *models.User, payment *models.Payment, refund *models.Refund) error
}

type NotificationService struct {
	config      config.EmailConfig
	frontendURL string
	templates   map[string]*template.Template
	send        func(to, subject, body string) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[string]EmailTemplate{
	"welcome": {
		Subject: "Welcome to JINGJAI",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Name}}!</h2>
	<p>Your account is ready. Start authenticating your luxury items today.</p>
	<a href="{{.AppURL}}">Open JINGJAI</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
	"payment_receipt": {
		Subject: "Your JINGJAI receipt",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Payment received</h2>
	<p>Hello {{.Name}},</p>
	<p>We received your payment of <strong>{{.Amount}} {{.Currency}}</strong> for order {{.OrderID}}.</p>
	<p>Transaction: {{.TransactionID}}</p>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
	"refund_issued": {
		Subject: "Your JINGJAI refund",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Refund issued</h2>
	<p>Hello {{.Name}},</p>
	<p>A refund of <strong>{{.Amount}} {{.Currency}}</strong> was issued for transaction {{.TransactionID}}.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
	<p>Refund reference: {{.RefundID}}</p>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
	"authentication_completed": {
		Subject: "Your authentication result is ready",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Authentication complete</h2>
	<p>Hello {{.Name}},</p>
	<p>Your {{.BrandName}} {{.ProductName}} was assessed as <strong>{{.Result}}</strong>.</p>
	<a href="{{.AppURL}}/profile">View details</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
	},
}

const platformName = "JINGJAI"

func NewNotificationService(cfg config.EmailConfig, frontendURL string) *NotificationService {
	s := &NotificationService{
		config:      cfg,
		frontendURL: frontendURL,
		templates:   make(map[string]*template.Template, len(emailTemplates)),
	}
	for name, t := range emailTemplates {
		s.templates[name] = template.Must(template.New(name).Parse(t.Body))
	}
	s.send = s.sendEmail
	return s
}

func (s *NotificationService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	return s.deliver(ctx, user.Email, "welcome", map[string]interface{}{
		"Name":         user.Name,
		"AppURL":       s.frontendURL,
		"PlatformName": platformName,
	})
}

func (s *NotificationService) PaymentReceipt(ctx context.Context, user *models.User, payment *models.Payment) error {
	return s.deliver(ctx, user.Email, "payment_receipt", map[string]interface{}{
		"Name":          user.Name,
		"Amount":        payment.Amount().String(),
		"Currency":      payment.Currency,
		"OrderID":       payment.OrderID,
		"TransactionID": payment.TransactionID,
		"PlatformName":  platformName,
	})
}

func (s *NotificationService) RefundIssued(ctx context.Context, user *models.User, payment *models.Payment, refund *models.Refund) error {
	return s.deliver(ctx, user.Email, "refund_issued", map[string]interface{}{
		"Name":          user.Name,
		"Amount":        refund.Amount().String(),
		"Currency":      refund.Currency,
		"TransactionID": payment.TransactionID,
		"RefundID":      refund.RefundID,
		"Reason":        refund.Reason,
		"PlatformName":  platformName,
	})
}

func (s *NotificationService) AuthenticationCompleted(ctx context.Context, user *models.User, record *models.AuthenticationRecord) error {
	result := ""
	if record.AuthenticationResult != nil {
		result = string(*record.AuthenticationResult)
	}
	return s.deliver(ctx, user.Email, "authentication_completed", map[string]interface{}{
		"Name":         user.Name,
		"BrandName":    record.BrandName,
		"ProductName":  record.ProductName,
		"Result":       result,
		"AppURL":       s.frontendURL,
		"PlatformName": platformName,
	})
}

func (s *NotificationService) deliver(ctx context.Context, to, templateName string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.send(to, emailTemplates[templateName].Subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.SMTPHost == "" || s.config.SMTPUsername == "" {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, skipping delivery")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.SMTPHost, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
