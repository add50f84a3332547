// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

// WelcomeNotifier greets newly registered users.
type WelcomeNotifier interface {
	SendWelcomeEmail(ctx context.Context, user *models.User) error
}

type AuthService struct {
	db       *gorm.DB
	cfg      config.JWTConfig
	identity IdentityProvider
	notifier WelcomeNotifier
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty" validate:"omitempty,username"`
	Password string `json:"password" validate:"required,strong_password"`
}

type GoogleAuthRequest struct {
	Provider    string `json:"provider"`
	ProviderID  string `json:"providerId" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Picture     string `json:"picture,omitempty"`
	AccessToken string `json:"accessToken" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig, identity IdentityProvider, notifier WelcomeNotifier) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		identity: identity,
		notifier: notifier,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		IsActive: true,
	}
	if req.Username != "" {
		username := req.Username
		user.Username = &username
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			return apperrors.Conflict(i18n.KeyAuthUserExists, "email already registered")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}

		if user.Username != nil {
			err = tx.Where("username = ?", *user.Username).First(&existing).Error
			if err == nil {
				return apperrors.Conflict(i18n.KeyAuthUsernameTaken, "username already taken")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check username: %w", err)
			}
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict(i18n.KeyAuthUserExists, "user already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("User registered")

	if s.notifier != nil {
		go func(user models.User) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.SendWelcomeEmail(ctx, &user); err != nil {
				logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send welcome email")
			}
		}(*user)
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized(i18n.KeyAuthInvalidCredentials, "invalid email or password")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Unauthorized(i18n.KeyAuthInvalidCredentials, "invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(i18n.KeyAuthAccountInactive, "account is not active")
	}

	if err := s.touchLastLogin(ctx, &user); err != nil {
		return nil, err
	}

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(i18n.KeyAuthInvalidToken, "invalid refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperrors.Unauthorized(i18n.KeyAuthInvalidToken, "invalid subject in refresh token")
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthorized(i18n.KeyAuthInvalidToken, "unknown user in refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(i18n.KeyAuthAccountInactive, "account is not active")
	}

	return s.issueTokens(user)
}

// GoogleLogin signs in with a Google access token. An existing account with
// the same email or Google id is linked; otherwise a new one is created.
func (s *AuthService) GoogleLogin(ctx context.Context, req *GoogleAuthRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	info, err := s.identity.VerifyAccessToken(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, ErrInvalidIdentityToken) {
			return nil, apperrors.Unauthorized(i18n.KeyAuthGoogleInvalidToken, "invalid Google access token")
		}
		return nil, apperrors.Upstream(i18n.KeyAuthIdentityUnavailable, "failed to verify with Google", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.ToLower(info.Email) != email {
		return nil, apperrors.Validation(i18n.KeyAuthGoogleEmailMismatch, "token email does not match provided email")
	}

	var user models.User
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Where("email = ? OR google_id = ?", email, info.ID).First(&user).Error
		switch {
		case err == nil:
			if !user.IsActive {
				return apperrors.Unauthorized(i18n.KeyAuthAccountInactive, "account is not active")
			}
			if user.GoogleID == nil {
				googleID := info.ID
				user.GoogleID = &googleID
				if user.ProfilePicture == "" {
					user.ProfilePicture = req.Picture
				}
				return tx.Model(&user).Select("google_id", "profile_picture", "updated_at").Updates(&user).Error
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			googleID := info.ID
			user = models.User{
				Name:           req.Name,
				Email:          email,
				GoogleID:       &googleID,
				ProfilePicture: req.Picture,
				IsActive:       true,
			}
			return tx.Create(&user).Error
		default:
			return fmt.Errorf("failed to fetch user: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	if err := s.touchLastLogin(ctx, &user); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("Google authentication successful")
	return s.issueTokens(&user)
}

// GoogleRevoke revokes the token at Google. The local session ends either
// way, so a failed revocation is reported but not returned as an error.
func (s *AuthService) GoogleRevoke(ctx context.Context, accessToken string) bool {
	if err := s.identity.RevokeToken(ctx, accessToken); err != nil {
		logrus.WithError(err).Warn("Google token revocation failed")
		return false
	}
	return true
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login", now).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.UserType), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.AccessTokenTTL * 3600,
	}, nil
}
