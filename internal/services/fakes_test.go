package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/javajoker/jingjai-backend/internal/models"
)

// FakeGateway accepts every charge unless a hook overrides it.
type FakeGateway struct {
	AuthorizeFn func(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
	RefundFn    func(ctx context.Context, req GatewayRefundRequest) (*GatewayRefundResult, error)

	authorizeCalls atomic.Int32
	refundCalls    atomic.Int32
}

func (g *FakeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	g.authorizeCalls.Add(1)
	if g.AuthorizeFn != nil {
		return g.AuthorizeFn(ctx, req)
	}
	return &AuthorizeResult{Accepted: true, ExternalID: "pi_" + uuid.NewString()}, nil
}

func (g *FakeGateway) Refund(ctx context.Context, req GatewayRefundRequest) (*GatewayRefundResult, error) {
	g.refundCalls.Add(1)
	if g.RefundFn != nil {
		return g.RefundFn(ctx, req)
	}
	return &GatewayRefundResult{ExternalID: "re_" + uuid.NewString()}, nil
}

// FakeStorage keeps uploads in memory.
type FakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	err     error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{objects: make(map[string][]byte)}
}

func (s *FakeStorage) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := input.Options.Folder + "/" + uuid.NewString() + "_" + input.Filename
	s.objects[key] = input.Data
	return &UploadResult{
		URL:  "https://cdn.test/" + key,
		Key:  key,
		Size: int64(len(input.Data)),
	}, nil
}

func (s *FakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// FakeIdentityProvider resolves access tokens from a fixed table.
type FakeIdentityProvider struct {
	Users     map[string]*GoogleUserInfo
	Err       error
	RevokeErr error
	Revoked   []string
}

func (p *FakeIdentityProvider) VerifyAccessToken(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	info, ok := p.Users[accessToken]
	if !ok {
		return nil, ErrInvalidIdentityToken
	}
	return info, nil
}

func (p *FakeIdentityProvider) RevokeToken(ctx context.Context, accessToken string) error {
	if p.RevokeErr != nil {
		return p.RevokeErr
	}
	p.Revoked = append(p.Revoked, accessToken)
	return nil
}

// recordingNotifier counts the notifications it is asked to send.
type recordingNotifier struct {
	mu              sync.Mutex
	receipts        []string
	refunds         []string
	welcomes        []string
	authentications []uuid.UUID
}

func (n *recordingNotifier) PaymentReceipt(ctx context.Context, user *models.User, payment *models.Payment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, payment.TransactionID)
	return nil
}

func (n *recordingNotifier) RefundIssued(ctx context.Context, user *models.User, payment *models.Payment, refund *models.Refund) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refunds = append(n.refunds, refund.RefundID)
	return nil
}

func (n *recordingNotifier) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, user.Email)
	return nil
}

func (n *recordingNotifier) AuthenticationCompleted(ctx context.Context, user *models.User, record *models.AuthenticationRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.authentications = append(n.authentications, record.ID)
	return nil
}
