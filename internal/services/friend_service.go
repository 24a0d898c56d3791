package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/models"
)

var (
	ErrSelfFriendRequest  = errors.New("cannot send a friend request to yourself")
	ErrBlocked            = errors.New("a block exists between these users")
	ErrFriendshipExists   = errors.New("a pending or accepted friendship already exists")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrRequestNotPending  = errors.New("friend request is not pending")
	ErrNotFriendshipParty = errors.New("you are not a party to this friendship")
	ErrUserNotFound       = errors.New("user not found")
)

// FriendListFilter selects which slice of the social graph List returns.
type FriendListFilter string

const (
	FilterIncoming FriendListFilter = "incoming"
	FilterOutgoing FriendListFilter = "outgoing"
	FilterAccepted FriendListFilter = "accepted"
)

// FriendService owns the friendship state machine: request, accept, decline,
// cancel, delete, and the reciprocal auto-accept rule.
type FriendService struct {
	db     *gorm.DB
	blocks *BlockService
}

func NewFriendService(db *gorm.DB, blocks *BlockService) *FriendService {
	return &FriendService{db: db, blocks: blocks}
}

// pairLockKey returns the canonical lock key for an unordered user pair: both
// orderings of the same two ids map to the same key.
func pairLockKey(a, b uuid.UUID) string {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	return a.String() + ":" + b.String()
}

// lockPair serializes writers on the unordered user pair for the duration of
// tx, so find-then-write sequences on friendships and blocks cannot interleave
// for the same two users. sqlite's single writer serializes on its own.
func lockPair(tx *gorm.DB, a, b uuid.UUID) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", pairLockKey(a, b)).Error
	if err != nil {
		return fmt.Errorf("failed to lock user pair: %w", err)
	}
	return nil
}

// SendRequest creates a pending friendship from requester to target. If the
// target already has a pending request towards the requester, that row is
// promoted to accepted instead (reciprocal auto-accept). Declined or canceled
// rows between the pair are revived in place with the new direction.
func (s *FriendService) SendRequest(requesterID, targetID uuid.UUID) (*models.Friendship, error) {
	if requesterID == targetID {
		return nil, ErrSelfFriendRequest
	}

	var target models.User
	if err := s.db.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up target user: %w", err)
	}

	var friendship models.Friendship
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, requesterID, targetID); err != nil {
			return err
		}

		blocked, err := s.blocks.existsBetween(tx, requesterID, targetID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}

		err = tx.
			Where("(requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)",
				requesterID, targetID, targetID, requesterID).
			First(&friendship).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			friendship = models.Friendship{
				ID:          uuid.New(),
				RequesterID: requesterID,
				TargetID:    targetID,
				Status:      models.StatusPending,
			}
			if err := tx.Create(&friendship).Error; err != nil {
				return fmt.Errorf("failed to create friendship: %w", err)
			}
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to look up friendship: %w", err)
		}

		switch friendship.Status {
		case models.StatusPending:
			if friendship.RequesterID == targetID {
				// The target asked first; merge both requests into one
				// accepted row.
				now := time.Now()
				friendship.Status = models.StatusAccepted
				friendship.RespondedAt = &now
				if err := tx.Save(&friendship).Error; err != nil {
					return fmt.Errorf("failed to auto-accept friendship: %w", err)
				}
				return nil
			}
			return ErrFriendshipExists
		case models.StatusAccepted:
			return ErrFriendshipExists
		default:
			// Revive the terminal row with the new direction.
			friendship.RequesterID = requesterID
			friendship.TargetID = targetID
			friendship.Status = models.StatusPending
			friendship.RespondedAt = nil
			friendship.CreatedAt = time.Now()
			if err := tx.Save(&friendship).Error; err != nil {
				return fmt.Errorf("failed to revive friendship: %w", err)
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

// Accept transitions a pending request to accepted. Only the target may
// accept.
func (s *FriendService) Accept(callerID, friendshipID uuid.UUID) (*models.Friendship, error) {
	return s.respond(callerID, friendshipID, models.StatusAccepted)
}

// Decline transitions a pending request to declined. Only the target may
// decline.
func (s *FriendService) Decline(callerID, friendshipID uuid.UUID) (*models.Friendship, error) {
	return s.respond(callerID, friendshipID, models.StatusDeclined)
}

// Cancel transitions a pending request to canceled. Only the requester may
// cancel.
func (s *FriendService) Cancel(callerID, friendshipID uuid.UUID) (*models.Friendship, error) {
	return s.respond(callerID, friendshipID, models.StatusCanceled)
}

func (s *FriendService) respond(callerID, friendshipID uuid.UUID, to models.RequestStatus) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := s.db.First(&friendship, "id = ?", friendshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("failed to look up friendship: %w", err)
	}

	if !friendship.Status.CanTransition(to) {
		return nil, ErrRequestNotPending
	}

	// Cancel belongs to the requester, accept and decline to the target.
	actor := friendship.TargetID
	if to == models.StatusCanceled {
		actor = friendship.RequesterID
	}
	if callerID != actor {
		return nil, ErrNotFriendshipParty
	}

	now := time.Now()
	friendship.Status = to
	friendship.RespondedAt = &now
	if err := s.db.Save(&friendship).Error; err != nil {
		return nil, fmt.Errorf("failed to update friendship: %w", err)
	}
	return &friendship, nil
}

// Delete removes the friendship row (any status) and both parties' memos.
// Either party may delete.
func (s *FriendService) Delete(callerID, friendshipID uuid.UUID) error {
	var friendship models.Friendship
	if err := s.db.First(&friendship, "id = ?", friendshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return fmt.Errorf("failed to look up friendship: %w", err)
	}

	if !friendship.Involves(callerID) {
		return ErrNotFriendshipParty
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("friendship_id = ?", friendship.ID).Delete(&models.FriendMemo{}).Error; err != nil {
			return fmt.Errorf("failed to delete friend memos: %w", err)
		}
		if err := tx.Delete(&friendship).Error; err != nil {
			return fmt.Errorf("failed to delete friendship: %w", err)
		}
		return nil
	})
}

// AreFriends reports whether a and b share an accepted friendship. The invite
// engine gates on this.
func (s *FriendService) AreFriends(a, b uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Friendship{}).
		Where("(requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)", a, b, b, a).
		Where("status = ?", models.StatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// List returns a page of the caller's friendships for the given filter,
// newest first. For the accepted filter, search narrows the page to rows
// whose other party's display name contains the search text
// (case-insensitive).
func (s *FriendService) List(callerID uuid.UUID, filter FriendListFilter, search string, limit, offset int) ([]models.Friendship, int64, error) {
	query := s.db.Model(&models.Friendship{})

	switch filter {
	case FilterIncoming:
		query = query.Where("target_id = ? AND status = ?", callerID, models.StatusPending)
	case FilterOutgoing:
		query = query.Where("requester_id = ? AND status = ?", callerID, models.StatusPending)
	case FilterAccepted:
		query = query.Where("(requester_id = ? OR target_id = ?) AND status = ?",
			callerID, callerID, models.StatusAccepted)
		if search != "" {
			query = query.
				Joins("JOIN users ON users.id = CASE WHEN friendships.requester_id = ? THEN friendships.target_id ELSE friendships.requester_id END", callerID).
				Where("LOWER(users.display_name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}
	default:
		return nil, 0, fmt.Errorf("unknown friend list filter %q", filter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count friendships: %w", err)
	}

	var friendships []models.Friendship
	err := query.Order("friendships.created_at DESC").Limit(limit).Offset(offset).Find(&friendships).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list friendships: %w", err)
	}
	return friendships, total, nil
}

// SetMemo upserts the caller's private note on a friendship. An empty body
// clears the memo.
func (s *FriendService) SetMemo(callerID, friendshipID uuid.UUID, body string) error {
	var friendship models.Friendship
	if err := s.db.First(&friendship, "id = ?", friendshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return fmt.Errorf("failed to look up friendship: %w", err)
	}
	if !friendship.Involves(callerID) {
		return ErrNotFriendshipParty
	}

	if strings.TrimSpace(body) == "" {
		err := s.db.
			Where("friendship_id = ? AND user_id = ?", friendshipID, callerID).
			Delete(&models.FriendMemo{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear friend memo: %w", err)
		}
		return nil
	}

	var memo models.FriendMemo
	err := s.db.Where("friendship_id = ? AND user_id = ?", friendshipID, callerID).First(&memo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		memo = models.FriendMemo{
			ID:           uuid.New(),
			FriendshipID: friendshipID,
			UserID:       callerID,
			Body:         body,
		}
		if err := s.db.Create(&memo).Error; err != nil {
			return fmt.Errorf("failed to create friend memo: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to look up friend memo: %w", err)
	}

	memo.Body = body
	if err := s.db.Save(&memo).Error; err != nil {
		return fmt.Errorf("failed to update friend memo: %w", err)
	}
	return nil
}

// GetMemo returns the caller's memo on a friendship, or nil when none is set.
func (s *FriendService) GetMemo(callerID, friendshipID uuid.UUID) (*models.FriendMemo, error) {
	var memo models.FriendMemo
	err := s.db.Where("friendship_id = ? AND user_id = ?", friendshipID, callerID).First(&memo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up friend memo: %w", err)
	}
	return &memo, nil
}
