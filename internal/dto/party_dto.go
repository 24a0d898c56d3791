package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePartyRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

type TransferOwnershipRequest struct {
	NewOwnerID uuid.UUID `json:"new_owner_id"`
}

type KickMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type SetAssignmentRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Subparty *int      `json:"subparty"`
	Role     *string   `json:"role"`
}

type CreateInviteRequest struct {
	InviteeID uuid.UUID `json:"invitee_id"`
}

type PartyMemberResponse struct {
	UserID   uuid.UUID  `json:"user_id"`
	Subparty *int       `json:"subparty,omitempty"`
	Role     *string    `json:"role,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
	IsOwner  bool       `json:"is_owner"`
}

type PartyMembersResponse struct {
	PartyID uuid.UUID             `json:"party_id"`
	Name    string                `json:"name"`
	OwnerID uuid.UUID             `json:"owner_id"`
	Members []PartyMemberResponse `json:"members"`
}

type PartyListResponse struct {
	Parties []PartyResponse `json:"parties"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type PartyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}
