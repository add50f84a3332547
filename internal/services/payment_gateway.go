// internal/services/payment_gateway.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// PaymentGateway charges and refunds through an external processor.
// Implementations must treat IdempotencyKey as a de-duplication key.
type PaymentGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
	Refund(ctx context.Context, req GatewayRefundRequest) (*GatewayRefundResult, error)
}

type AuthorizeRequest struct {
	IdempotencyKey string
	AmountMinor    int64
	Currency       string
	PaymentToken   string
	Description    string
	Metadata       map[string]string
}

type AuthorizeResult struct {
	Accepted      bool
	ExternalID    string
	DeclineReason string
}

type GatewayRefundRequest struct {
	IdempotencyKey string
	ExternalID     string
	AmountMinor    int64
	Reason         string
}

type GatewayRefundResult struct {
	ExternalID string
}

// ErrGatewayUnavailable marks transport-level failures that may succeed on
// retry.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	token, err := stripeTokenID(req.PaymentToken)
	if err != nil {
		return &AuthorizeResult{DeclineReason: err.Error()}, nil
	}

	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{Token: stripe.String(token)},
	}
	pmParams.Context = ctx
	pmParams.SetIdempotencyKey(req.IdempotencyKey + "-pm")

	pm, err := g.api.PaymentMethods.New(pmParams)
	if err != nil {
		return declineOrError(err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(pm.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return declineOrError(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return &AuthorizeResult{Accepted: true, ExternalID: pi.ID}, nil
	default:
		return &AuthorizeResult{
			ExternalID:    pi.ID,
			DeclineReason: fmt.Sprintf("payment intent ended in status %s", pi.Status),
		}, nil
	}
}

func (g *StripeGateway) Refund(ctx context.Context, req GatewayRefundRequest) (*GatewayRefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ExternalID),
		Amount:        stripe.Int64(req.AmountMinor),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return &GatewayRefundResult{ExternalID: r.ID}, nil
}

// Card errors are declines; everything else is a gateway failure.
func declineOrError(err error) (*AuthorizeResult, error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		reason := stripeErr.Msg
		if stripeErr.DeclineCode != "" {
			reason = string(stripeErr.DeclineCode)
		}
		return &AuthorizeResult{DeclineReason: reason}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}

// stripeTokenID extracts the Stripe token from a Google Pay tokenization
// payload, which is either the raw token id or the JSON token object.
func stripeTokenID(paymentToken string) (string, error) {
	paymentToken = strings.TrimSpace(paymentToken)
	if strings.HasPrefix(paymentToken, "tok_") {
		return paymentToken, nil
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(paymentToken), &payload); err != nil || payload.ID == "" {
		return "", errors.New("payment token is not a Stripe token")
	}
	return payload.ID, nil
}

// SimulatedGateway accepts every charge except the reserved decline token. It
// is used when no processor key is configured.
type SimulatedGateway struct {
	mu      sync.Mutex
	charges map[string]*AuthorizeResult
}

const SimulatedDeclineToken = "tok_chargeDeclined"

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{charges: make(map[string]*AuthorizeResult)}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if prior, ok := g.charges[req.IdempotencyKey]; ok {
		return prior, nil
	}

	result := &AuthorizeResult{Accepted: true, ExternalID: "sim_pi_" + uuid.NewString()}
	if strings.Contains(req.PaymentToken, SimulatedDeclineToken) {
		result = &AuthorizeResult{DeclineReason: "card_declined"}
	}
	g.charges[req.IdempotencyKey] = result

	logrus.WithFields(logrus.Fields{
		"idempotency_key": req.IdempotencyKey,
		"accepted":        result.Accepted,
	}).Debug("Simulated gateway authorization")
	return result, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, req GatewayRefundRequest) (*GatewayRefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &GatewayRefundResult{ExternalID: "sim_re_" + uuid.NewString()}, nil
}
