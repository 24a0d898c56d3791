package services_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raidmate/raidmate-backend/internal/models"
)

// newTestDB opens a fresh in-memory database named after the test. A single
// connection keeps the shared-cache database alive for the test's duration.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Friendship{},
		&models.FriendMemo{},
		&models.Block{},
		&models.Party{},
		&models.PartyMember{},
		&models.PartyInvite{},
	))

	// Unordered-pair unique indexes, matching production migration. sqlite
	// spells LEAST/GREATEST as the two-argument MIN/MAX.
	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_pair ON friendships (MIN(requester_id, target_id), MAX(requester_id, target_id))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_blocks_unordered_pair ON blocks (MIN(blocker_id, blocked_id), MAX(blocker_id, blocked_id))",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	user := models.User{
		ID:          uuid.New(),
		Email:       name + "@example.com",
		Password:    "irrelevant",
		DisplayName: name,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}
