package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is the single row describing the relation between two users.
// At most one pending-or-accepted row exists per unordered pair; declined and
// canceled rows are revived in place by the next request instead of being
// duplicated.
type Friendship struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;index:idx_friendships_requester" json:"requester_id"`
	TargetID    uuid.UUID     `gorm:"type:uuid;not null;index:idx_friendships_target" json:"target_id"`
	Status      RequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
	Requester   User          `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	Target      User          `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// Live reports whether the row still binds the pair (pending or accepted).
func (f *Friendship) Live() bool {
	return f.Status == StatusPending || f.Status == StatusAccepted
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uuid.UUID) bool {
	return f.RequesterID == userID || f.TargetID == userID
}

// Other returns the counterpart of userID on this row.
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.TargetID
	}
	return f.RequesterID
}
