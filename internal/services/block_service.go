package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/models"
)

var (
	ErrSelfBlock      = errors.New("cannot block yourself")
	ErrAlreadyBlocked = errors.New("a block already exists between these users")
)

// BlockService owns the block relation and its interaction with friendships:
// creating a block tears down any live friendship between the pair.
type BlockService struct {
	db *gorm.DB
}

func NewBlockService(db *gorm.DB) *BlockService {
	return &BlockService{db: db}
}

// ExistsBetween reports whether a block exists in either direction between a
// and b. Friend and invite creation are gated on this.
func (s *BlockService) ExistsBetween(a, b uuid.UUID) (bool, error) {
	return s.existsBetween(s.db, a, b)
}

func (s *BlockService) existsBetween(tx *gorm.DB, a, b uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return count > 0, nil
}

// Block creates a directed block and destroys any live friendship between the
// pair in the same transaction. The duplicate check runs under the pair lock
// so two racing blocks for the same pair cannot both pass it.
func (s *BlockService) Block(blockerID, blockedID uuid.UUID) (*models.Block, error) {
	if blockerID == blockedID {
		return nil, ErrSelfBlock
	}

	block := models.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, blockerID, blockedID); err != nil {
			return err
		}

		exists, err := s.existsBetween(tx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyBlocked
		}

		var friendship models.Friendship
		err = tx.
			Where("(requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)",
				blockerID, blockedID, blockedID, blockerID).
			Where("status IN ?", []models.RequestStatus{models.StatusPending, models.StatusAccepted}).
			First(&friendship).Error
		if err == nil {
			if err := tx.Where("friendship_id = ?", friendship.ID).Delete(&models.FriendMemo{}).Error; err != nil {
				return fmt.Errorf("failed to delete friend memos: %w", err)
			}
			if err := tx.Delete(&friendship).Error; err != nil {
				return fmt.Errorf("failed to delete friendship: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up friendship: %w", err)
		}

		if err := tx.Create(&block).Error; err != nil {
			return fmt.Errorf("failed to create block: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// Unblock removes the directed block row. Removing a block that does not
// exist is a no-op.
func (s *BlockService) Unblock(blockerID, blockedID uuid.UUID) error {
	err := s.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	return nil
}

// ListBlocked returns the users blocked by userID, newest first.
func (s *BlockService) ListBlocked(userID uuid.UUID) ([]models.Block, error) {
	var blocks []models.Block
	err := s.db.Where("blocker_id = ?", userID).Order("created_at DESC").Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}
