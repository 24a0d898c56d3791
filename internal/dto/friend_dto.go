package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendFriendRequestRequest struct {
	TargetID uuid.UUID `json:"target_id"`
}

type BlockUserRequest struct {
	BlockedID uuid.UUID `json:"blocked_id"`
}

type SetFriendMemoRequest struct {
	Body string `json:"body"`
}

// FriendshipResponse is a friendship row seen from the caller's side: Friend
// is always the other party.
type FriendshipResponse struct {
	ID          uuid.UUID     `json:"id"`
	Friend      UserResponse  `json:"friend"`
	Direction   string        `json:"direction"` // "outgoing" or "incoming"
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

type FriendListResponse struct {
	Friendships []FriendshipResponse `json:"friendships"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}
