package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservation/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.Customer{}))
	assert.True(t, db.Migrator().HasTable(&models.Reservation{}))
	assert.True(t, db.Migrator().HasColumn(&models.Reservation{}, "version"))
	assert.True(t, db.Migrator().HasIndex(&models.Reservation{}, "idx_reservations_phone_workflow"))

	// Idempotent.
	assert.NoError(t, Migrate(db))
}
