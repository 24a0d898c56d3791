package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raidmate/raidmate-backend/internal/config"
	"github.com/raidmate/raidmate-backend/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for every model, then adds the unordered-pair
// unique indexes that cannot be expressed as struct tags. They enforce one
// friendship row and one block per user pair regardless of direction, even
// against writers that race past the service-level checks.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Friendship{},
		&models.FriendMemo{},
		&models.Block{},
		&models.Party{},
		&models.PartyMember{},
		&models.PartyInvite{},
		&models.SystemLog{},
	); err != nil {
		return err
	}

	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_pair ON friendships (LEAST(requester_id, target_id), GREATEST(requester_id, target_id))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_blocks_unordered_pair ON blocks (LEAST(blocker_id, blocked_id), GREATEST(blocker_id, blocked_id))",
	} {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create pair index: %w", err)
		}
	}
	return nil
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
