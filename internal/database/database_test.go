package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/testutil"
)

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	boom := errors.New("boom")

	err := database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Brand{Name: "Ghost", Logo: "G", APIEndpoint: "ghost", IsActive: true}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Brand{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	db := testutil.NewTestDB(t)

	assert.Panics(t, func() {
		database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
			tx.Create(&models.Brand{Name: "Ghost", Logo: "G", APIEndpoint: "ghost", IsActive: true})
			panic("unexpected")
		})
	})

	var count int64
	require.NoError(t, db.Model(&models.Brand{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTransactionCommits(t *testing.T) {
	db := testutil.NewTestDB(t)

	err := database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		return tx.Create(&models.Brand{Name: "Kept", Logo: "K", APIEndpoint: "kept", IsActive: true}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Brand{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.SeedCatalog(ctx, db))
	require.NoError(t, database.SeedCatalog(ctx, db))

	var brands, products int64
	require.NoError(t, db.Model(&models.Brand{}).Count(&brands).Error)
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	assert.EqualValues(t, 5, brands)
	assert.EqualValues(t, 6, products)

	var attica models.Product
	require.NoError(t, db.Where("name = ?", "Attica").First(&attica).Error)
	require.True(t, attica.PriceNumeric.Valid)
	assert.Equal(t, "1050", attica.PriceNumeric.Decimal.String())
	assert.NotNil(t, attica.CategoryID)
}

func TestSeedAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.SeedAdmin(ctx, db, "Admin@Example.com", "Secret123!"))
	require.NoError(t, database.SeedAdmin(ctx, db, "admin@example.com", "Secret123!"))

	var admins []models.User
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.UserTypeAdmin, admins[0].UserType)
	assert.NoError(t, admins[0].CheckPassword("Secret123!"))

	assert.NoError(t, database.SeedAdmin(ctx, db, "", ""))
}
