// internal/services/profile_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

var authenticationSort = utils.SortSpec{
	Columns: map[string]string{
		"created_at": "created_at",
		"status":     "status",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
	TieBreaker:   "id",
}

// AuthenticationNotifier is told when an authentication result is ready.
type AuthenticationNotifier interface {
	AuthenticationCompleted(ctx context.Context, user *models.User, record *models.AuthenticationRecord) error
}

type ProfileService struct {
	db              *gorm.DB
	storage         ObjectStorage
	notifier        AuthenticationNotifier
	defaultCurrency string
}

type UserStats struct {
	AuthenticationsCount int64           `json:"authentications_count"`
	TotalSpent           decimal.Decimal `json:"total_spent"`
	FavoriteItems        int             `json:"favorite_items"`
	MemberSince          string          `json:"member_since"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=50"`
	// DateOfBirth is a calendar date, YYYY-MM-DD.
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type UserSettings struct {
	Notifications models.NotificationSettings `json:"notifications"`
	Privacy       models.PrivacySettings      `json:"privacy"`
}

type CreateAuthenticationRequest struct {
	ProductID      *uuid.UUID `json:"product_id"`
	BrandName      string     `json:"brand_name" validate:"required,max=255"`
	ProductName    string     `json:"product_name" validate:"required,max=255"`
	PhotosUploaded []string   `json:"photos_uploaded" validate:"max=20,dive,url"`
}

type CompleteAuthenticationRequest struct {
	Result          models.AuthenticationResult `json:"authentication_result" validate:"required"`
	ConfidenceScore *float64                    `json:"confidence_score" validate:"omitempty,min=0,max=100"`
	Notes           string                      `json:"authenticator_notes" validate:"max=5000"`
	Cost            *decimal.Decimal            `json:"cost"`
}

func NewProfileService(db *gorm.DB, storage ObjectStorage, notifier AuthenticationNotifier, defaultCurrency string) *ProfileService {
	return &ProfileService{
		db:              db,
		storage:         storage,
		notifier:        notifier,
		defaultCurrency: defaultCurrency,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.activeUser(s.db.WithContext(ctx), userID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	var user *models.User
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		user, err = s.activeUser(tx, userID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Bio != nil {
			user.Bio = *req.Bio
		}
		if req.PhoneNumber != nil {
			user.PhoneNumber = *req.PhoneNumber
		}
		if req.DateOfBirth != nil {
			dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				return apperrors.Validation(i18n.KeyValidationInvalid, "date_of_birth must be YYYY-MM-DD")
			}
			user.DateOfBirth = &dob
		}

		return tx.Model(user).
			Select("name", "bio", "phone_number", "date_of_birth", "updated_at").
			Updates(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UploadProfilePhoto stores the image and points the profile at it. The
// object is removed again if the profile cannot be updated.
func (s *ProfileService) UploadProfilePhoto(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*UploadResult, error) {
	if _, err := s.activeUser(s.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}

	result, err := s.storage.Upload(ctx, UploadInput{
		Filename: filename,
		Data:     data,
		Options:  GetDefaultUploadOptions("avatars"),
	})
	if err != nil {
		return nil, err
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("profile_picture", result.URL).Error
	})
	if err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("Failed to remove orphaned profile photo")
		}
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}

	return result, nil
}

// GetStats aggregates a user's authentication history. Users without
// history get zero values.
func (s *ProfileService) GetStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	var count int64
	if err := db.Model(&models.AuthenticationRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count authentications: %w", err)
	}

	var spentMinor int64
	if err := db.Model(&models.AuthenticationRecord{}).
		Where("user_id = ? AND status = ?", userID, models.AuthenticationStatusCompleted).
		Select("COALESCE(SUM(cost_minor), 0)").
		Scan(&spentMinor).Error; err != nil {
		return nil, fmt.Errorf("failed to sum authentication costs: %w", err)
	}

	return &UserStats{
		AuthenticationsCount: count,
		TotalSpent:           utils.FromMinorUnits(spentMinor, s.defaultCurrency),
		FavoriteItems:        0,
		MemberSince:          user.MemberSince(),
	}, nil
}

func (s *ProfileService) ListAuthentications(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.AuthenticationRecord, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuthenticationRecord{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count authentications: %w", err)
	}

	records := make([]models.AuthenticationRecord, 0)
	page := utils.ApplyPagination(utils.ApplySort(query, params, authenticationSort), params)
	if err := page.Preload("Product").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch authentications: %w", err)
	}
	return records, total, nil
}

func (s *ProfileService) CreateAuthentication(ctx context.Context, userID uuid.UUID, req *CreateAuthenticationRequest) (*models.AuthenticationRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	photos := req.PhotosUploaded
	if photos == nil {
		photos = []string{}
	}

	record := &models.AuthenticationRecord{
		UserID:         userID,
		ProductID:      req.ProductID,
		BrandName:      strings.TrimSpace(req.BrandName),
		ProductName:    strings.TrimSpace(req.ProductName),
		PhotosUploaded: datatypes.JSONSlice[string](photos),
		Currency:       s.defaultCurrency,
		Status:         models.AuthenticationStatusPending,
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.activeUser(tx, userID); err != nil {
			return err
		}
		if req.ProductID != nil {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", *req.ProductID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check product: %w", err)
			}
			if count == 0 {
				return apperrors.NotFound(i18n.KeyProductNotFound, "product not found")
			}
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"authentication_id": record.ID,
		"user_id":           userID,
	}).Info("Authentication requested")
	return record, nil
}

// CompleteAuthentication records the verdict for a pending request.
func (s *ProfileService) CompleteAuthentication(ctx context.Context, id uuid.UUID, req *CompleteAuthenticationRequest) (*models.AuthenticationRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(i18n.KeyAuthenticationResultRequired, err.Error())
	}
	if !req.Result.Valid() {
		return nil, apperrors.Validation(i18n.KeyAuthenticationResultRequired,
			fmt.Sprintf("invalid authentication result %q", req.Result))
	}

	var costMinor *int64
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, "cost must not be negative")
		}
		minor, err := utils.ToMinorUnits(*req.Cost, s.defaultCurrency)
		if err != nil {
			return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, err.Error())
		}
		costMinor = &minor
	}

	record, err := s.transition(ctx, id, func(record *models.AuthenticationRecord) {
		now := time.Now()
		result := req.Result
		record.Status = models.AuthenticationStatusCompleted
		record.AuthenticationResult = &result
		record.ConfidenceScore = req.ConfidenceScore
		record.AuthenticatorNotes = req.Notes
		record.CostMinor = costMinor
		record.CompletedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go func(record models.AuthenticationRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var owner models.User
			if err := s.db.WithContext(ctx).First(&owner, "id = ?", record.UserID).Error; err != nil {
				logrus.WithError(err).Warn("Failed to load authentication owner")
				return
			}
			if err := s.notifier.AuthenticationCompleted(ctx, &owner, &record); err != nil {
				logrus.WithError(err).Warn("Failed to send authentication notification")
			}
		}(*record)
	}
	return record, nil
}

func (s *ProfileService) CancelAuthentication(ctx context.Context, id uuid.UUID, notes string) (*models.AuthenticationRecord, error) {
	return s.transition(ctx, id, func(record *models.AuthenticationRecord) {
		record.Status = models.AuthenticationStatusCancelled
		if notes != "" {
			record.AuthenticatorNotes = notes
		}
	})
}

// transition applies fn to a PENDING record under a row lock.
func (s *ProfileService) transition(ctx context.Context, id uuid.UUID, fn func(*models.AuthenticationRecord)) (*models.AuthenticationRecord, error) {
	var record models.AuthenticationRecord
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(i18n.KeyAuthenticationNotFound, "authentication not found")
			}
			return fmt.Errorf("failed to fetch authentication: %w", err)
		}

		if record.Status != models.AuthenticationStatusPending {
			return apperrors.InvalidState(i18n.KeyAuthenticationInvalidTransition,
				fmt.Sprintf("authentication is %s", record.Status))
		}

		from := record.Status
		fn(&record)
		logrus.WithFields(logrus.Fields{
			"authentication_id": record.ID,
			"from":              from,
			"to":                record.Status,
		}).Info("Authentication status changed")

		return tx.Model(&record).
			Select("status", "authentication_result", "confidence_score", "authenticator_notes", "cost_minor", "completed_at", "updated_at").
			Updates(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ProfileService) GetSettings(ctx context.Context, userID uuid.UUID) (*UserSettings, error) {
	user, err := s.activeUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return settingsOf(user), nil
}

func (s *ProfileService) UpdateSettings(ctx context.Context, userID uuid.UUID, settings *UserSettings) (*UserSettings, error) {
	if err := utils.ValidateStruct(settings); err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	var user *models.User
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if user, err = s.activeUser(tx, userID); err != nil {
			return err
		}

		user.NotificationPreferences = datatypes.NewJSONType(settings.Notifications)
		user.PrivacySettings = datatypes.NewJSONType(settings.Privacy)
		return tx.Model(user).
			Select("notification_preferences", "privacy_settings", "updated_at").
			Updates(user).Error
	})
	if err != nil {
		return nil, err
	}
	return settingsOf(user), nil
}

// DeleteAccount deactivates the user and anonymises identifying fields.
// Payments and authentication history are kept.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		user, err := s.activeUser(tx, userID)
		if err != nil {
			return err
		}

		user.IsActive = false
		user.Email = fmt.Sprintf("deleted_%s@deleted.com", user.ID)
		user.GoogleID = nil
		user.Username = nil
		if err := tx.Model(user).
			Select("is_active", "email", "google_id", "username", "updated_at").
			Updates(user).Error; err != nil {
			return fmt.Errorf("failed to deactivate account: %w", err)
		}

		logrus.WithField("user_id", user.ID).Info("Account deactivated")
		return nil
	})
}

func (s *ProfileService) activeUser(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func settingsOf(user *models.User) *UserSettings {
	return &UserSettings{
		Notifications: user.NotificationPreferences.Data(),
		Privacy:       user.PrivacySettings.Data(),
	}
}
