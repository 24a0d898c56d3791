package models

import (
	"time"

	"github.com/google/uuid"
)

// PartyInvite is a pending offer from a party owner to a candidate. At most
// one pending invite exists per (party, invitee); terminal invites are
// immutable and a fresh invite may be issued afterwards. There is no foreign
// key on PartyID: canceled invites outlive their party as history.
type PartyInvite struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PartyID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"party_id"`
	InviterID   uuid.UUID     `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"invitee_id"`
	Status      RequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
	Inviter     User          `gorm:"foreignKey:InviterID;constraint:OnDelete:CASCADE" json:"-"`
	Invitee     User          `gorm:"foreignKey:InviteeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PartyInvite) TableName() string {
	return "party_invites"
}
