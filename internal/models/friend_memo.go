package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendMemo is a private note a user keeps on one of their friendships.
// It is deleted together with the friendship.
type FriendMemo struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FriendshipID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_friend_memos_owner" json:"friendship_id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_friend_memos_owner" json:"user_id"`
	Body         string     `gorm:"size:500" json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Friendship   Friendship `gorm:"foreignKey:FriendshipID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FriendMemo) TableName() string {
	return "friend_memos"
}
