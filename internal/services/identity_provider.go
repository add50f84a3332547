// internal/services/identity_provider.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/javajoker/jingjai-backend/internal/config"
)

// IdentityProvider verifies third-party access tokens.
type IdentityProvider interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*GoogleUserInfo, error)
	RevokeToken(ctx context.Context, accessToken string) error
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

var (
	// ErrInvalidIdentityToken means the provider rejected the token.
	ErrInvalidIdentityToken = errors.New("invalid identity token")
	// ErrIdentityProviderUnavailable means the provider could not be reached.
	ErrIdentityProviderUnavailable = errors.New("identity provider unavailable")
)

type GoogleIdentityProvider struct {
	client      *http.Client
	userInfoURL string
	revokeURL   string
}

func NewGoogleIdentityProvider(cfg config.GoogleConfig) *GoogleIdentityProvider {
	return &GoogleIdentityProvider{
		client:      &http.Client{Timeout: cfg.Timeout},
		userInfoURL: cfg.UserInfoURL,
		revokeURL:   cfg.RevokeURL,
	}
}

func (p *GoogleIdentityProvider) VerifyAccessToken(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrIdentityProviderUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrInvalidIdentityToken, resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: malformed userinfo response: %v", ErrIdentityProviderUnavailable, err)
	}
	if info.ID == "" || info.Email == "" || info.Name == "" {
		return nil, fmt.Errorf("%w: incomplete user information", ErrInvalidIdentityToken)
	}
	return &info, nil
}

func (p *GoogleIdentityProvider) RevokeToken(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: revoke returned %d", ErrInvalidIdentityToken, resp.StatusCode)
	}
	return nil
}
