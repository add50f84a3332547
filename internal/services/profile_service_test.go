package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/testutil"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

func newProfileService(t *testing.T) (*ProfileService, *FakeStorage, *models.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	storage := NewFakeStorage()
	user := testutil.CreateUser(t, db, "collector@example.com")
	return NewProfileService(db, storage, nil, "USD"), storage, user
}

func requestAuthentication(t *testing.T, svc *ProfileService, userID uuid.UUID, product string) *models.AuthenticationRecord {
	t.Helper()
	record, err := svc.CreateAuthentication(context.Background(), userID, &CreateAuthenticationRequest{
		BrandName:   "Maison Verre",
		ProductName: product,
	})
	require.NoError(t, err)
	return record
}

func TestGetStatsWithoutHistory(t *testing.T) {
	svc, _, user := newProfileService(t)

	stats, err := svc.GetStats(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Zero(t, stats.AuthenticationsCount)
	assert.True(t, stats.TotalSpent.IsZero())
	assert.Zero(t, stats.FavoriteItems)
	assert.Equal(t, user.CreatedAt.Format("2006"), stats.MemberSince)
}

func TestGetStatsSumsCompletedCosts(t *testing.T) {
	svc, _, user := newProfileService(t)
	ctx := context.Background()

	first := requestAuthentication(t, svc, user.ID, "Tote")
	second := requestAuthentication(t, svc, user.ID, "Clutch")
	third := requestAuthentication(t, svc, user.ID, "Loafer")
	requestAuthentication(t, svc, user.ID, "Belt")

	_, err := svc.CompleteAuthentication(ctx, first.ID, &CompleteAuthenticationRequest{
		Result: models.AuthenticationResultAuthentic,
		Cost:   decimalPtr("50"),
	})
	require.NoError(t, err)
	_, err = svc.CompleteAuthentication(ctx, second.ID, &CompleteAuthenticationRequest{
		Result: models.AuthenticationResultFake,
		Cost:   decimalPtr("75.50"),
	})
	require.NoError(t, err)
	_, err = svc.CancelAuthentication(ctx, third.ID, "customer withdrew")
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, user.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.AuthenticationsCount)
	assert.True(t, stats.TotalSpent.Equal(decimal.RequireFromString("125.50")), "got %s", stats.TotalSpent)
}

func TestGetStatsUnknownUser(t *testing.T) {
	svc, _, _ := newProfileService(t)

	_, err := svc.GetStats(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestAuthenticationLifecycle(t *testing.T) {
	svc, _, user := newProfileService(t)
	ctx := context.Background()

	record := requestAuthentication(t, svc, user.ID, "Tote")
	assert.Equal(t, models.AuthenticationStatusPending, record.Status)
	assert.Nil(t, record.AuthenticationResult)
	assert.NotNil(t, record.PhotosUploaded)

	score := 97.5
	completed, err := svc.CompleteAuthentication(ctx, record.ID, &CompleteAuthenticationRequest{
		Result:          models.AuthenticationResultAuthentic,
		ConfidenceScore: &score,
		Notes:           "stitching consistent",
		Cost:            decimalPtr("45"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AuthenticationStatusCompleted, completed.Status)
	require.NotNil(t, completed.AuthenticationResult)
	assert.Equal(t, models.AuthenticationResultAuthentic, *completed.AuthenticationResult)
	assert.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.Cost())
	assert.True(t, completed.Cost().Equal(decimal.NewFromInt(45)))

	_, err = svc.CompleteAuthentication(ctx, record.ID, &CompleteAuthenticationRequest{
		Result: models.AuthenticationResultFake,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))

	_, err = svc.CancelAuthentication(ctx, record.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))

	_, err = svc.CancelAuthentication(ctx, uuid.New(), "")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCompleteAuthenticationValidation(t *testing.T) {
	svc, _, user := newProfileService(t)
	record := requestAuthentication(t, svc, user.ID, "Tote")

	cases := map[string]*CompleteAuthenticationRequest{
		"missing result":   {},
		"unknown result":   {Result: "MAYBE"},
		"negative cost":    {Result: models.AuthenticationResultAuthentic, Cost: decimalPtr("-1")},
		"fractional cents": {Result: models.AuthenticationResultAuthentic, Cost: decimalPtr("1.001")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CompleteAuthentication(context.Background(), record.ID, req)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

func TestCreateAuthenticationChecksProduct(t *testing.T) {
	svc, _, user := newProfileService(t)

	missing := uuid.New()
	_, err := svc.CreateAuthentication(context.Background(), user.ID, &CreateAuthenticationRequest{
		ProductID:   &missing,
		BrandName:   "Maison Verre",
		ProductName: "Tote",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = svc.CreateAuthentication(context.Background(), user.ID, &CreateAuthenticationRequest{
		BrandName:      "Maison Verre",
		ProductName:    "Tote",
		PhotosUploaded: []string{"not a url"},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestListAuthenticationsNewestFirst(t *testing.T) {
	svc, _, user := newProfileService(t)

	requestAuthentication(t, svc, user.ID, "First")
	requestAuthentication(t, svc, user.ID, "Second")
	requestAuthentication(t, svc, user.ID, "Third")

	records, total, err := svc.ListAuthentications(context.Background(), user.ID, utils.PaginationParams{Limit: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 3, total)
	assert.Len(t, records, 2)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, user := newProfileService(t)
	ctx := context.Background()

	name := "  Ada Collector "
	bio := "Vintage bags"
	dob := "1990-04-12"
	updated, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{Name: &name, Bio: &bio, DateOfBirth: &dob})
	require.NoError(t, err)
	assert.Equal(t, "Ada Collector", updated.Name)

	stored, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Collector", stored.Name)
	assert.Equal(t, "Vintage bags", stored.Bio)
	require.NotNil(t, stored.DateOfBirth)
	assert.Equal(t, "1990-04-12", stored.DateOfBirth.Format("2006-01-02"))

	bad := "12/04/1990"
	_, err = svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{DateOfBirth: &bad})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestUploadProfilePhoto(t *testing.T) {
	svc, storage, user := newProfileService(t)
	ctx := context.Background()

	result, err := svc.UploadProfilePhoto(ctx, user.ID, "me.png", []byte("png-bytes"))
	require.NoError(t, err)

	stored, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, result.URL, stored.ProfilePicture)
	assert.Contains(t, storage.objects, result.Key)

	storage.err = errors.New("bucket unavailable")
	_, err = svc.UploadProfilePhoto(ctx, user.ID, "me.png", []byte("png-bytes"))
	assert.Error(t, err)
}

func TestSettingsRoundTrip(t *testing.T) {
	svc, _, user := newProfileService(t)
	ctx := context.Background()

	defaults, err := svc.GetSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, defaults.Notifications.PushNotifications)
	assert.Equal(t, "public", defaults.Privacy.ProfileVisibility)

	_, err = svc.UpdateSettings(ctx, user.ID, &UserSettings{
		Notifications: models.NotificationSettings{EmailUpdates: true},
		Privacy:       models.PrivacySettings{ProfileVisibility: "private"},
	})
	require.NoError(t, err)

	stored, err := svc.GetSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Notifications.PushNotifications)
	assert.True(t, stored.Notifications.EmailUpdates)
	assert.Equal(t, "private", stored.Privacy.ProfileVisibility)

	_, err = svc.UpdateSettings(ctx, user.ID, &UserSettings{
		Privacy: models.PrivacySettings{ProfileVisibility: "everyone"},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestDeleteAccountDeactivatesAndAnonymises(t *testing.T) {
	svc, _, user := newProfileService(t)
	ctx := context.Background()

	requestAuthentication(t, svc, user.ID, "Tote")
	require.NoError(t, svc.DeleteAccount(ctx, user.ID))

	_, err := svc.GetProfile(ctx, user.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	var stored models.User
	require.NoError(t, svc.db.First(&stored, "id = ?", user.ID).Error)
	assert.False(t, stored.IsActive)
	assert.NotEqual(t, "collector@example.com", stored.Email)

	stats, err := svc.GetStats(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.AuthenticationsCount)

	assert.True(t, apperrors.Is(svc.DeleteAccount(ctx, user.ID), apperrors.KindNotFound))
}
