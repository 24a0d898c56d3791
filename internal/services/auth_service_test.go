package services_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/config"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/models"
	"github.com/raidmate/raidmate-backend/internal/services"
)

func newAuthService(db *gorm.DB) *services.AuthService {
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	return services.NewAuthService(db, cfg)
}

func register(t *testing.T, auth *services.AuthService, email, name string) *dto.AuthResponse {
	t.Helper()
	resp, err := auth.Register(&dto.RegisterRequest{
		Email:       email,
		Password:    "password123",
		DisplayName: name,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	t.Run("issues a valid token pair", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)

		resp := register(t, auth, "alice@example.com", "alice")
		assert.Equal(t, "alice", resp.User.DisplayName)
		assert.NotEmpty(t, resp.RefreshToken)

		token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, resp.User.ID.String(), claims["sub"])

		// Password is stored hashed.
		var user models.User
		require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
		assert.NotEqual(t, "password123", user.Password)
	})

	t.Run("rejects duplicate email and weak input", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)

		register(t, auth, "alice@example.com", "alice")
		_, err := auth.Register(&dto.RegisterRequest{
			Email:       "alice@example.com",
			Password:    "password123",
			DisplayName: "alice2",
		})
		assert.ErrorIs(t, err, services.ErrEmailTaken)

		_, err = auth.Register(&dto.RegisterRequest{
			Email:       "bob@example.com",
			Password:    "short",
			DisplayName: "bob",
		})
		assert.Error(t, err)

		_, err = auth.Register(&dto.RegisterRequest{
			Email:       "bob@example.com",
			Password:    "password123",
			DisplayName: "   ",
		})
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(db)
	register(t, auth, "alice@example.com", "alice")

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := auth.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password or unknown email", func(t *testing.T) {
		_, err := auth.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)

		_, err = auth.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates the refresh token", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)
		first := register(t, auth, "alice@example.com", "alice")

		second, err := auth.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// The old token is single-use.
		_, err = auth.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("rejects garbage and logged-out tokens", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)
		resp := register(t, auth, "alice@example.com", "alice")

		_, err := auth.Refresh(&dto.RefreshRequest{RefreshToken: "not-a-token"})
		assert.ErrorIs(t, err, services.ErrInvalidToken)

		require.NoError(t, auth.Logout(&dto.LogoutRequest{RefreshToken: resp.RefreshToken}))
		_, err = auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("requires the correct password", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)
		resp := register(t, auth, "alice@example.com", "alice")

		err := auth.DeleteAccount(resp.User.ID, "wrong")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("cascades across the social graph", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)
		blocks := services.NewBlockService(db)
		friends := services.NewFriendService(db, blocks)
		parties := services.NewPartyService(db)
		invites := services.NewInviteService(db, parties, friends, blocks)

		alice := register(t, auth, "alice@example.com", "alice")
		bob := register(t, auth, "bob@example.com", "bob")
		carol := register(t, auth, "carol@example.com", "carol")

		// alice<->bob friends with a memo, alice blocks carol.
		f, err := friends.SendRequest(alice.User.ID, bob.User.ID)
		require.NoError(t, err)
		_, err = friends.Accept(bob.User.ID, f.ID)
		require.NoError(t, err)
		require.NoError(t, friends.SetMemo(alice.User.ID, f.ID, "igniter main"))
		_, err = blocks.Block(alice.User.ID, carol.User.ID)
		require.NoError(t, err)

		// alice owns a party with bob in it; she is also a plain member of
		// bob's party, and holds a pending invite to a second party of his.
		owned, err := parties.Create(alice.User.ID, "alice statics", models.PartyPublic)
		require.NoError(t, err)
		_, err = parties.Join(owned.ID, bob.User.ID)
		require.NoError(t, err)

		bobsParty, err := parties.Create(bob.User.ID, "bob statics", models.PartyPublic)
		require.NoError(t, err)
		_, err = parties.Join(bobsParty.ID, alice.User.ID)
		require.NoError(t, err)

		bobsAltParty, err := parties.Create(bob.User.ID, "bob alt run", models.PartyPublic)
		require.NoError(t, err)
		_, err = invites.Create(bobsAltParty.ID, bob.User.ID, alice.User.ID)
		require.NoError(t, err)

		require.NoError(t, auth.DeleteAccount(alice.User.ID, "password123"))

		_, err = auth.GetUser(alice.User.ID)
		assert.ErrorIs(t, err, services.ErrUserNotFound)

		var count int64
		require.NoError(t, db.Model(&models.Friendship{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.FriendMemo{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.Block{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", alice.User.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.PartyInvite{}).Where("invitee_id = ?", alice.User.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)

		// Her owned party is gone and its memberships are closed.
		require.NoError(t, db.Model(&models.Party{}).Where("id = ?", owned.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		assert.Equal(t, int64(0), activeCount(t, db, owned.ID))

		// Bob's party survives without her.
		require.NoError(t, db.Model(&models.Party{}).Where("id = ?", bobsParty.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, int64(1), activeCount(t, db, bobsParty.ID))
	})

	t.Run("a failed cascade step commits nothing", func(t *testing.T) {
		db := newTestDB(t)
		auth := newAuthService(db)
		blocks := services.NewBlockService(db)
		friends := services.NewFriendService(db, blocks)

		alice := register(t, auth, "alice@example.com", "alice")
		bob := register(t, auth, "bob@example.com", "bob")
		f, err := friends.SendRequest(alice.User.ID, bob.User.ID)
		require.NoError(t, err)
		_, err = friends.Accept(bob.User.ID, f.ID)
		require.NoError(t, err)

		// Break the memo step mid-cascade; the whole deletion must roll back.
		require.NoError(t, db.Exec("DROP TABLE friend_memos").Error)
		require.Error(t, auth.DeleteAccount(alice.User.ID, "password123"))

		_, err = auth.GetUser(alice.User.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", alice.User.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		require.NoError(t, db.Model(&models.Friendship{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestUpdateDisplayNameAndSearch(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(db)
	alice := register(t, auth, "alice@example.com", "alice")
	register(t, auth, "bobby@example.com", "Bobby")
	register(t, auth, "carol@example.com", "carol")

	updated, err := auth.UpdateDisplayName(alice.User.ID, "  Alicia  ")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.DisplayName)

	_, err = auth.UpdateDisplayName(alice.User.ID, " ")
	assert.Error(t, err)

	// Search excludes the caller and matches case-insensitively.
	users, total, err := auth.SearchUsers(alice.User.ID, "obb", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "Bobby", users[0].DisplayName)

	users, total, err = auth.SearchUsers(alice.User.ID, "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)
}
