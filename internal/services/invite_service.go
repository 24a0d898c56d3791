package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/models"
)

var (
	ErrSelfInvite       = errors.New("cannot invite yourself")
	ErrNotFriends       = errors.New("you can only invite accepted friends")
	ErrAlreadyInvited   = errors.New("a pending invite for this user already exists")
	ErrInviteNotFound   = errors.New("invite not found")
	ErrInviteNotPending = errors.New("invite is not pending")
	ErrNotInvitee       = errors.New("only the invitee may respond to this invite")
)

// InviteService owns the party-invite state machine. Invites are gated on
// friendship and block status at creation, and capacity is re-validated
// inside the transaction that writes the membership on acceptance.
type InviteService struct {
	db      *gorm.DB
	parties *PartyService
	friends *FriendService
	blocks  *BlockService
}

func NewInviteService(db *gorm.DB, parties *PartyService, friends *FriendService, blocks *BlockService) *InviteService {
	return &InviteService{db: db, parties: parties, friends: friends, blocks: blocks}
}

// Create issues a pending invite from the party owner to an accepted friend.
// The capacity check here is advisory; Accept re-checks it under the party
// row lock.
func (s *InviteService) Create(partyID, inviterID, inviteeID uuid.UUID) (*models.PartyInvite, error) {
	if inviterID == inviteeID {
		return nil, ErrSelfInvite
	}

	var party models.Party
	if err := s.db.First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to look up party: %w", err)
	}
	if party.OwnerID != inviterID {
		return nil, ErrNotPartyOwner
	}

	var invitee models.User
	if err := s.db.First(&invitee, "id = ?", inviteeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}

	blocked, err := s.blocks.ExistsBetween(inviterID, inviteeID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	friends, err := s.friends.AreFriends(inviterID, inviteeID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}

	count, err := activeMemberCount(s.db, partyID)
	if err != nil {
		return nil, err
	}
	if count >= models.PartyCapacity {
		return nil, ErrPartyFull
	}

	var active int64
	err = s.db.Model(&models.PartyMember{}).
		Where("party_id = ? AND user_id = ? AND left_at IS NULL", partyID, inviteeID).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if active > 0 {
		return nil, ErrAlreadyMember
	}

	var pending int64
	err = s.db.Model(&models.PartyInvite{}).
		Where("party_id = ? AND invitee_id = ? AND status = ?", partyID, inviteeID, models.StatusPending).
		Count(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}
	if pending > 0 {
		return nil, ErrAlreadyInvited
	}

	invite := models.PartyInvite{
		ID:        uuid.New(),
		PartyID:   partyID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    models.StatusPending,
	}
	if err := s.db.Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	return &invite, nil
}

// Accept converts a pending invite into a membership. Membership and capacity
// are validated again inside the same transaction that writes the member row,
// so a full party fails here with ErrPartyFull and leaves no partial state.
func (s *InviteService) Accept(inviteID, callerID uuid.UUID) (*models.PartyMember, error) {
	var member *models.PartyMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invite models.PartyInvite
		if err := tx.First(&invite, "id = ?", inviteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteNotFound
			}
			return fmt.Errorf("failed to look up invite: %w", err)
		}
		if !invite.Status.CanTransition(models.StatusAccepted) {
			return ErrInviteNotPending
		}
		if invite.InviteeID != callerID {
			return ErrNotInvitee
		}

		party, err := lockParty(tx, invite.PartyID)
		if err != nil {
			return err
		}

		member, err = s.parties.addMember(tx, party, callerID)
		if err != nil {
			return err
		}

		now := time.Now()
		invite.Status = models.StatusAccepted
		invite.RespondedAt = &now
		if err := tx.Save(&invite).Error; err != nil {
			return fmt.Errorf("failed to update invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Decline marks a pending invite declined. Only the invitee may decline; the
// pair may be re-invited afterwards.
func (s *InviteService) Decline(inviteID, callerID uuid.UUID) (*models.PartyInvite, error) {
	var invite models.PartyInvite
	if err := s.db.First(&invite, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}
	if !invite.Status.CanTransition(models.StatusDeclined) {
		return nil, ErrInviteNotPending
	}
	if invite.InviteeID != callerID {
		return nil, ErrNotInvitee
	}

	now := time.Now()
	invite.Status = models.StatusDeclined
	invite.RespondedAt = &now
	if err := s.db.Save(&invite).Error; err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}
	return &invite, nil
}

// Cancel withdraws a pending invite. Only the party's current owner may
// cancel, which matters after an ownership transfer.
func (s *InviteService) Cancel(inviteID, callerID uuid.UUID) (*models.PartyInvite, error) {
	var invite models.PartyInvite
	if err := s.db.First(&invite, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}

	var party models.Party
	if err := s.db.First(&party, "id = ?", invite.PartyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to look up party: %w", err)
	}
	if party.OwnerID != callerID {
		return nil, ErrNotPartyOwner
	}
	if !invite.Status.CanTransition(models.StatusCanceled) {
		return nil, ErrInviteNotPending
	}

	now := time.Now()
	invite.Status = models.StatusCanceled
	invite.RespondedAt = &now
	if err := s.db.Save(&invite).Error; err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}
	return &invite, nil
}

// ListForInvitee returns the user's pending invites, newest first.
func (s *InviteService) ListForInvitee(userID uuid.UUID) ([]models.PartyInvite, error) {
	var invites []models.PartyInvite
	err := s.db.
		Where("invitee_id = ? AND status = ?", userID, models.StatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// ListForParty returns a party's pending invites. Owner-only.
func (s *InviteService) ListForParty(partyID, callerID uuid.UUID) ([]models.PartyInvite, error) {
	var party models.Party
	if err := s.db.First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to look up party: %w", err)
	}
	if party.OwnerID != callerID {
		return nil, ErrNotPartyOwner
	}

	var invites []models.PartyInvite
	err := s.db.
		Where("party_id = ? AND status = ?", partyID, models.StatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}
