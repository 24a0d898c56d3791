package models

import (
	"time"

	"github.com/google/uuid"
)

// PartyCapacity is the maximum number of active members a party may hold.
const PartyCapacity = 8

type PartyVisibility string

const (
	PartyPrivate PartyVisibility = "private"
	PartyPublic  PartyVisibility = "public"
)

// ValidVisibility reports whether v is one of the known visibility values.
func ValidVisibility(v PartyVisibility) bool {
	return v == PartyPrivate || v == PartyPublic
}

// Party is a capacity-bounded raid group with exactly one owner. The owner is
// always an active member.
type Party struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string          `gorm:"not null;size:100" json:"name"`
	OwnerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Visibility PartyVisibility `gorm:"size:10;not null;default:'private';index" json:"visibility"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Owner      User            `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Party) TableName() string {
	return "parties"
}
