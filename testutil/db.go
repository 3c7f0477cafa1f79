package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/theEricHoang/coal/db"
	"github.com/theEricHoang/coal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated, private in-memory SQLite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config())
	require.NoError(t, err)

	// A single connection keeps the shared in-memory database alive and
	// serializes writers the way row locks do on Postgres.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// CreateUser inserts a user with the given name and role "user".
func CreateUser(t testing.TB, gdb *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		Role:     models.RoleUser,
	}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

// CreateGame inserts a catalog entry.
func CreateGame(t testing.TB, gdb *gorm.DB, game models.Game) models.Game {
	t.Helper()
	if game.StudioID == 0 {
		game.StudioID = 1
	}
	require.NoError(t, gdb.Create(&game).Error)
	return game
}
