package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleDealer  = "dealer"
	RoleSupport = "support"
)

// PartyMember is the membership row keyed by (party, user). LeftAt == nil
// means the membership is active; a user rejoining after leaving revives the
// same row instead of inserting a duplicate. Like invites, membership rows
// carry no foreign key on PartyID so they survive party deletion as history.
type PartyMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_party_members_party_user" json:"party_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_party_members_party_user" json:"user_id"`
	Subparty *int      `json:"subparty,omitempty"`
	Role     *string   `gorm:"size:20" json:"role,omitempty"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
	LeftAt   *time.Time `gorm:"index" json:"left_at,omitempty"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PartyMember) TableName() string {
	return "party_members"
}

// Active reports whether the membership is current.
func (m *PartyMember) Active() bool {
	return m.LeftAt == nil
}

// ValidSubparty reports whether n is one of the two subparty slots.
func ValidSubparty(n int) bool {
	return n == 1 || n == 2
}

// ValidRole reports whether r is a known member role tag.
func ValidRole(r string) bool {
	return r == RoleDealer || r == RoleSupport
}
