package services_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/models"
	"github.com/raidmate/raidmate-backend/internal/services"
)

type inviteFixture struct {
	db      *gorm.DB
	blocks  *services.BlockService
	friends *services.FriendService
	parties *services.PartyService
	invites *services.InviteService
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()
	db := newTestDB(t)
	blocks := services.NewBlockService(db)
	friends := services.NewFriendService(db, blocks)
	parties := services.NewPartyService(db)
	return &inviteFixture{
		db:      db,
		blocks:  blocks,
		friends: friends,
		parties: parties,
		invites: services.NewInviteService(db, parties, friends, blocks),
	}
}

func (f *inviteFixture) befriend(t *testing.T, a, b uuid.UUID) {
	t.Helper()
	req, err := f.friends.SendRequest(a, b)
	require.NoError(t, err)
	_, err = f.friends.Accept(b, req.ID)
	require.NoError(t, err)
}

func TestCreateInvite(t *testing.T) {
	t.Run("owner invites an accepted friend", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		invite, err := f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, invite.Status)
		assert.Equal(t, owner, invite.InviterID)
		assert.Equal(t, friend, invite.InviteeID)
	})

	t.Run("gate chain", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		stranger := createUser(t, f.db, "stranger")
		enemy := createUser(t, f.db, "enemy")
		f.befriend(t, owner, friend)
		f.befriend(t, owner, enemy)
		party := createPublicParty(t, f.db, f.parties, owner)

		_, err := f.invites.Create(party.ID, owner, owner)
		assert.ErrorIs(t, err, services.ErrSelfInvite)

		_, err = f.invites.Create(uuid.New(), owner, friend)
		assert.ErrorIs(t, err, services.ErrPartyNotFound)

		_, err = f.invites.Create(party.ID, friend, stranger)
		assert.ErrorIs(t, err, services.ErrNotPartyOwner)

		_, err = f.invites.Create(party.ID, owner, uuid.New())
		assert.ErrorIs(t, err, services.ErrUserNotFound)

		_, err = f.invites.Create(party.ID, owner, stranger)
		assert.ErrorIs(t, err, services.ErrNotFriends)

		_, err = f.blocks.Block(enemy, owner)
		require.NoError(t, err)
		_, err = f.invites.Create(party.ID, owner, enemy)
		assert.ErrorIs(t, err, services.ErrBlocked)

		_, err = f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)
		_, err = f.invites.Create(party.ID, owner, friend)
		assert.ErrorIs(t, err, services.ErrAlreadyInvited)
	})

	t.Run("rejects an active member", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		_, err := f.parties.Join(party.ID, friend)
		require.NoError(t, err)

		_, err = f.invites.Create(party.ID, owner, friend)
		assert.ErrorIs(t, err, services.ErrAlreadyMember)
	})

	t.Run("rejects when the party is already full", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		for i := 0; i < models.PartyCapacity-1; i++ {
			filler := createUser(t, f.db, fmt.Sprintf("filler%d", i))
			_, err := f.parties.Join(party.ID, filler)
			require.NoError(t, err)
		}

		_, err := f.invites.Create(party.ID, owner, friend)
		assert.ErrorIs(t, err, services.ErrPartyFull)
	})
}

func TestAcceptInvite(t *testing.T) {
	t.Run("accepting joins the party", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		invite, err := f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)

		member, err := f.invites.Accept(invite.ID, friend)
		require.NoError(t, err)
		assert.Equal(t, friend, member.UserID)
		assert.Nil(t, member.LeftAt)
		assert.False(t, member.JoinedAt.IsZero())

		var stored models.PartyInvite
		require.NoError(t, f.db.First(&stored, "id = ?", invite.ID).Error)
		assert.Equal(t, models.StatusAccepted, stored.Status)
		assert.NotNil(t, stored.RespondedAt)
	})

	t.Run("only the invitee may accept", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		invite, err := f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)

		_, err = f.invites.Accept(invite.ID, owner)
		assert.ErrorIs(t, err, services.ErrNotInvitee)

		_, err = f.invites.Accept(uuid.New(), friend)
		assert.ErrorIs(t, err, services.ErrInviteNotFound)
	})

	t.Run("capacity is re-checked at acceptance", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		first := createUser(t, f.db, "first")
		second := createUser(t, f.db, "second")
		f.befriend(t, owner, first)
		f.befriend(t, owner, second)
		party := createPublicParty(t, f.db, f.parties, owner)

		// The owner holds one seat; fill all but two of the rest, then issue
		// two pending invites for the remaining pair of seats.
		for i := 0; i < models.PartyCapacity-3; i++ {
			filler := createUser(t, f.db, fmt.Sprintf("filler%d", i))
			_, err := f.parties.Join(party.ID, filler)
			require.NoError(t, err)
		}
		inviteA, err := f.invites.Create(party.ID, owner, first)
		require.NoError(t, err)
		inviteB, err := f.invites.Create(party.ID, owner, second)
		require.NoError(t, err)

		// A latecomer takes the last free seat directly.
		late := createUser(t, f.db, "late")
		_, err = f.parties.Join(party.ID, late)
		require.NoError(t, err)

		// The first acceptance fills the party; the second finds it full.
		_, err = f.invites.Accept(inviteA.ID, first)
		require.NoError(t, err)
		_, err = f.invites.Accept(inviteB.ID, second)
		assert.ErrorIs(t, err, services.ErrPartyFull)

		assert.Equal(t, int64(models.PartyCapacity), activeCount(t, f.db, party.ID))

		// The failed acceptance left no member row and no accepted invite.
		var count int64
		require.NoError(t, f.db.Model(&models.PartyMember{}).
			Where("party_id = ? AND user_id = ?", party.ID, second).
			Count(&count).Error)
		assert.Equal(t, int64(0), count)

		var stored models.PartyInvite
		require.NoError(t, f.db.First(&stored, "id = ?", inviteB.ID).Error)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("terminal invites cannot be accepted", func(t *testing.T) {
		f := newInviteFixture(t)
		owner := createUser(t, f.db, "owner")
		friend := createUser(t, f.db, "friend")
		f.befriend(t, owner, friend)
		party := createPublicParty(t, f.db, f.parties, owner)

		invite, err := f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)
		_, err = f.invites.Decline(invite.ID, friend)
		require.NoError(t, err)

		_, err = f.invites.Accept(invite.ID, friend)
		assert.ErrorIs(t, err, services.ErrInviteNotPending)
	})
}

func TestDeclineInvite(t *testing.T) {
	f := newInviteFixture(t)
	owner := createUser(t, f.db, "owner")
	friend := createUser(t, f.db, "friend")
	f.befriend(t, owner, friend)
	party := createPublicParty(t, f.db, f.parties, owner)

	invite, err := f.invites.Create(party.ID, owner, friend)
	require.NoError(t, err)

	t.Run("only the invitee may decline", func(t *testing.T) {
		_, err := f.invites.Decline(invite.ID, owner)
		assert.ErrorIs(t, err, services.ErrNotInvitee)
	})

	t.Run("declining is terminal but re-invitable", func(t *testing.T) {
		declined, err := f.invites.Decline(invite.ID, friend)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, declined.Status)
		assert.NotNil(t, declined.RespondedAt)

		_, err = f.invites.Decline(invite.ID, friend)
		assert.ErrorIs(t, err, services.ErrInviteNotPending)

		// A fresh invite for the same pair is allowed.
		again, err := f.invites.Create(party.ID, owner, friend)
		require.NoError(t, err)
		assert.NotEqual(t, invite.ID, again.ID)
	})
}

func TestCancelInvite(t *testing.T) {
	f := newInviteFixture(t)
	owner := createUser(t, f.db, "owner")
	friend := createUser(t, f.db, "friend")
	other := createUser(t, f.db, "other")
	f.befriend(t, owner, friend)
	f.befriend(t, owner, other)
	party := createPublicParty(t, f.db, f.parties, owner)

	_, err := f.parties.Join(party.ID, other)
	require.NoError(t, err)

	invite, err := f.invites.Create(party.ID, owner, friend)
	require.NoError(t, err)

	t.Run("only the current owner may cancel", func(t *testing.T) {
		_, err := f.invites.Cancel(invite.ID, friend)
		assert.ErrorIs(t, err, services.ErrNotPartyOwner)
	})

	t.Run("cancel follows an ownership transfer", func(t *testing.T) {
		require.NoError(t, f.parties.TransferOwnership(party.ID, owner, other))

		// The previous owner lost the right to cancel.
		_, err := f.invites.Cancel(invite.ID, owner)
		assert.ErrorIs(t, err, services.ErrNotPartyOwner)

		canceled, err := f.invites.Cancel(invite.ID, other)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCanceled, canceled.Status)
	})
}

func TestListInvites(t *testing.T) {
	f := newInviteFixture(t)
	owner := createUser(t, f.db, "owner")
	a := createUser(t, f.db, "a")
	b := createUser(t, f.db, "b")
	f.befriend(t, owner, a)
	f.befriend(t, owner, b)
	party := createPublicParty(t, f.db, f.parties, owner)

	inviteA, err := f.invites.Create(party.ID, owner, a)
	require.NoError(t, err)
	inviteB, err := f.invites.Create(party.ID, owner, b)
	require.NoError(t, err)
	_, err = f.invites.Decline(inviteB.ID, b)
	require.NoError(t, err)

	t.Run("for invitee shows only pending", func(t *testing.T) {
		got, err := f.invites.ListForInvitee(a)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, inviteA.ID, got[0].ID)

		got, err = f.invites.ListForInvitee(b)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("for party is owner-only", func(t *testing.T) {
		got, err := f.invites.ListForParty(party.ID, owner)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, inviteA.ID, got[0].ID)

		_, err = f.invites.ListForParty(party.ID, a)
		assert.ErrorIs(t, err, services.ErrNotPartyOwner)
	})
}

func TestDeleteOwnedCancelsInvites(t *testing.T) {
	f := newInviteFixture(t)
	owner := createUser(t, f.db, "owner")
	friend := createUser(t, f.db, "friend")
	f.befriend(t, owner, friend)
	party := createPublicParty(t, f.db, f.parties, owner)

	invite, err := f.invites.Create(party.ID, owner, friend)
	require.NoError(t, err)

	require.NoError(t, f.parties.DeleteOwned(party.ID, owner))

	var stored models.PartyInvite
	require.NoError(t, f.db.First(&stored, "id = ?", invite.ID).Error)
	assert.Equal(t, models.StatusCanceled, stored.Status)
	assert.NotNil(t, stored.RespondedAt)

	_, err = f.invites.Accept(invite.ID, friend)
	assert.ErrorIs(t, err, services.ErrInviteNotPending)
}
