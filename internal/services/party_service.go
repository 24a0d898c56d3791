package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raidmate/raidmate-backend/internal/models"
)

var (
	ErrPartyNameRequired = errors.New("party name is required")
	ErrInvalidVisibility = errors.New("visibility must be private or public")
	ErrPartyNotFound     = errors.New("party not found")
	ErrPartyPrivate      = errors.New("party is private: an invite is required to join")
	ErrNotPartyOwner     = errors.New("only the party owner may do this")
	ErrAlreadyMember     = errors.New("user is already an active member of this party")
	ErrNotMember         = errors.New("user is not an active member of this party")
	ErrPartyFull         = errors.New("party already has the maximum number of active members")
	ErrOwnerCannotLeave  = errors.New("the owner cannot leave the party; transfer ownership or delete it")
	ErrKickSelf          = errors.New("the owner cannot kick themselves")
	ErrNewOwnerNotMember = errors.New("new owner must be an active member of the party")
	ErrInvalidSubparty   = errors.New("subparty must be 1 or 2")
	ErrInvalidRole       = errors.New("role must be dealer or support")
)

// PartyService owns the party lifecycle and its capacity-bounded membership.
// Every membership-increasing write locks the party row first so that the
// active-member count and the insert are atomic per party.
type PartyService struct {
	db *gorm.DB
}

func NewPartyService(db *gorm.DB) *PartyService {
	return &PartyService{db: db}
}

// lockParty fetches the party row for update, making it the unit of mutual
// exclusion for capacity-affecting writes. sqlite has no FOR UPDATE; its
// single-writer lock serializes the transaction anyway.
func lockParty(tx *gorm.DB, partyID uuid.UUID) (*models.Party, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var party models.Party
	if err := q.First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to look up party: %w", err)
	}
	return &party, nil
}

func activeMemberCount(tx *gorm.DB, partyID uuid.UUID) (int64, error) {
	var count int64
	err := tx.Model(&models.PartyMember{}).
		Where("party_id = ? AND left_at IS NULL", partyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count party members: %w", err)
	}
	return count, nil
}

// addMember creates or revives the membership row for userID. The caller must
// already hold the party row lock within tx.
func (s *PartyService) addMember(tx *gorm.DB, party *models.Party, userID uuid.UUID) (*models.PartyMember, error) {
	var member models.PartyMember
	err := tx.Where("party_id = ? AND user_id = ?", party.ID, userID).First(&member).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	if found && member.Active() {
		return nil, ErrAlreadyMember
	}

	count, err := activeMemberCount(tx, party.ID)
	if err != nil {
		return nil, err
	}
	if count >= models.PartyCapacity {
		return nil, ErrPartyFull
	}

	if found {
		member.LeftAt = nil
		member.JoinedAt = time.Now()
		member.Subparty = nil
		member.Role = nil
		if err := tx.Save(&member).Error; err != nil {
			return nil, fmt.Errorf("failed to revive membership: %w", err)
		}
		return &member, nil
	}

	member = models.PartyMember{
		ID:       uuid.New(),
		PartyID:  party.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return &member, nil
}

// Create creates a party with the owner auto-joined in the same transaction.
func (s *PartyService) Create(ownerID uuid.UUID, name string, visibility models.PartyVisibility) (*models.Party, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrPartyNameRequired
	}
	if !models.ValidVisibility(visibility) {
		return nil, ErrInvalidVisibility
	}

	party := models.Party{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		OwnerID:    ownerID,
		Visibility: visibility,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&party).Error; err != nil {
			return fmt.Errorf("failed to create party: %w", err)
		}
		member := models.PartyMember{
			ID:       uuid.New(),
			PartyID:  party.ID,
			UserID:   ownerID,
			JoinedAt: time.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &party, nil
}

// Join adds userID to a public party directly, without an invite. Private
// parties are invite-only.
func (s *PartyService) Join(partyID, userID uuid.UUID) (*models.PartyMember, error) {
	var member *models.PartyMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		party, err := lockParty(tx, partyID)
		if err != nil {
			return err
		}
		if party.Visibility != models.PartyPublic {
			return ErrPartyPrivate
		}
		member, err = s.addMember(tx, party, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Leave marks the caller's membership as left. The owner must transfer
// ownership or delete the party instead.
func (s *PartyService) Leave(partyID, userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var party models.Party
		if err := tx.First(&party, "id = ?", partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartyNotFound
			}
			return fmt.Errorf("failed to look up party: %w", err)
		}
		if party.OwnerID == userID {
			return ErrOwnerCannotLeave
		}
		return closeMembership(tx, partyID, userID)
	})
}

// Kick marks the target's membership as left. Owner-only; the owner cannot
// kick themselves.
func (s *PartyService) Kick(partyID, ownerID, targetUserID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var party models.Party
		if err := tx.First(&party, "id = ?", partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartyNotFound
			}
			return fmt.Errorf("failed to look up party: %w", err)
		}
		if party.OwnerID != ownerID {
			return ErrNotPartyOwner
		}
		if targetUserID == ownerID {
			return ErrKickSelf
		}
		return closeMembership(tx, partyID, targetUserID)
	})
}

func closeMembership(tx *gorm.DB, partyID, userID uuid.UUID) error {
	var member models.PartyMember
	err := tx.Where("party_id = ? AND user_id = ? AND left_at IS NULL", partyID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotMember
	}
	if err != nil {
		return fmt.Errorf("failed to look up membership: %w", err)
	}
	now := time.Now()
	member.LeftAt = &now
	if err := tx.Save(&member).Error; err != nil {
		return fmt.Errorf("failed to close membership: %w", err)
	}
	return nil
}

// TransferOwnership hands the party to an active member. The old owner stays
// an ordinary active member.
func (s *PartyService) TransferOwnership(partyID, ownerID, newOwnerID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var party models.Party
		if err := tx.First(&party, "id = ?", partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartyNotFound
			}
			return fmt.Errorf("failed to look up party: %w", err)
		}
		if party.OwnerID != ownerID {
			return ErrNotPartyOwner
		}

		var count int64
		err := tx.Model(&models.PartyMember{}).
			Where("party_id = ? AND user_id = ? AND left_at IS NULL", partyID, newOwnerID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check new owner membership: %w", err)
		}
		if count == 0 {
			return ErrNewOwnerNotMember
		}

		party.OwnerID = newOwnerID
		if err := tx.Save(&party).Error; err != nil {
			return fmt.Errorf("failed to transfer ownership: %w", err)
		}
		return nil
	})
}

// DeleteOwned marks every active member as left, cancels pending invites, and
// deletes the party. Owner-only.
func (s *PartyService) DeleteOwned(partyID, ownerID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		party, err := lockParty(tx, partyID)
		if err != nil {
			return err
		}
		if party.OwnerID != ownerID {
			return ErrNotPartyOwner
		}

		now := time.Now()
		err = tx.Model(&models.PartyMember{}).
			Where("party_id = ? AND left_at IS NULL", partyID).
			Update("left_at", now).Error
		if err != nil {
			return fmt.Errorf("failed to close memberships: %w", err)
		}

		err = tx.Model(&models.PartyInvite{}).
			Where("party_id = ? AND status = ?", partyID, models.StatusPending).
			Updates(map[string]interface{}{"status": models.StatusCanceled, "responded_at": now}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel pending invites: %w", err)
		}

		if err := tx.Delete(party).Error; err != nil {
			return fmt.Errorf("failed to delete party: %w", err)
		}
		return nil
	})
}

// ListMembers returns the party and all its membership rows, historical ones
// included, oldest join first.
func (s *PartyService) ListMembers(partyID uuid.UUID) (*models.Party, []models.PartyMember, error) {
	var party models.Party
	if err := s.db.First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPartyNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up party: %w", err)
	}

	var members []models.PartyMember
	err := s.db.Where("party_id = ?", partyID).Order("joined_at ASC").Find(&members).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	return &party, members, nil
}

// SetAssignment sets a member's subparty slot and role tag. Owner-only; nil
// values clear the assignment.
func (s *PartyService) SetAssignment(partyID, ownerID, targetUserID uuid.UUID, subparty *int, role *string) (*models.PartyMember, error) {
	if subparty != nil && !models.ValidSubparty(*subparty) {
		return nil, ErrInvalidSubparty
	}
	if role != nil && !models.ValidRole(*role) {
		return nil, ErrInvalidRole
	}

	var member models.PartyMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var party models.Party
		if err := tx.First(&party, "id = ?", partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartyNotFound
			}
			return fmt.Errorf("failed to look up party: %w", err)
		}
		if party.OwnerID != ownerID {
			return ErrNotPartyOwner
		}

		err := tx.Where("party_id = ? AND user_id = ? AND left_at IS NULL", partyID, targetUserID).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		if err != nil {
			return fmt.Errorf("failed to look up membership: %w", err)
		}

		member.Subparty = subparty
		member.Role = role
		if err := tx.Save(&member).Error; err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListPublic returns a page of public parties, newest first.
func (s *PartyService) ListPublic(limit, offset int) ([]models.Party, int64, error) {
	query := s.db.Model(&models.Party{}).Where("visibility = ?", models.PartyPublic)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count parties: %w", err)
	}

	var parties []models.Party
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&parties).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, total, nil
}

// ListForUser returns the parties where userID is an active member.
func (s *PartyService) ListForUser(userID uuid.UUID) ([]models.Party, error) {
	var parties []models.Party
	err := s.db.
		Joins("JOIN party_members ON party_members.party_id = parties.id").
		Where("party_members.user_id = ? AND party_members.left_at IS NULL", userID).
		Order("parties.created_at DESC").
		Find(&parties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}
