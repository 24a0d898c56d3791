package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/raidmate/raidmate-backend/internal/config"
	"github.com/raidmate/raidmate-backend/internal/dto"
	"github.com/raidmate/raidmate-backend/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, errors.New("display name is required")
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Password:     string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		AuthProvider: "email",
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// DeleteAccount verifies the password, then removes the user and every social
// row they touch: tokens, friendships (with memos), blocks, invites, and
// memberships. Parties the user owns are closed out and deleted.
func (s *AuthService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if password == "" {
		return errors.New("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}

		var friendshipIDs []uuid.UUID
		err := tx.Model(&models.Friendship{}).
			Where("requester_id = ? OR target_id = ?", userID, userID).
			Pluck("id", &friendshipIDs).Error
		if err != nil {
			return fmt.Errorf("failed to collect friendships: %w", err)
		}
		if len(friendshipIDs) > 0 {
			if err := tx.Where("friendship_id IN ?", friendshipIDs).Delete(&models.FriendMemo{}).Error; err != nil {
				return fmt.Errorf("failed to delete friend memos: %w", err)
			}
			if err := tx.Where("id IN ?", friendshipIDs).Delete(&models.Friendship{}).Error; err != nil {
				return fmt.Errorf("failed to delete friendships: %w", err)
			}
		}

		if err := tx.Where("blocker_id = ? OR blocked_id = ?", userID, userID).Delete(&models.Block{}).Error; err != nil {
			return fmt.Errorf("failed to delete blocks: %w", err)
		}
		if err := tx.Where("inviter_id = ? OR invitee_id = ?", userID, userID).Delete(&models.PartyInvite{}).Error; err != nil {
			return fmt.Errorf("failed to delete invites: %w", err)
		}

		// Owned parties go away entirely; other memberships are closed.
		var ownedIDs []uuid.UUID
		err = tx.Model(&models.Party{}).Where("owner_id = ?", userID).Pluck("id", &ownedIDs).Error
		if err != nil {
			return fmt.Errorf("failed to collect owned parties: %w", err)
		}
		now := time.Now()
		if len(ownedIDs) > 0 {
			err := tx.Model(&models.PartyMember{}).
				Where("party_id IN ? AND left_at IS NULL", ownedIDs).
				Update("left_at", now).Error
			if err != nil {
				return fmt.Errorf("failed to close owned-party memberships: %w", err)
			}
			err = tx.Model(&models.PartyInvite{}).
				Where("party_id IN ? AND status = ?", ownedIDs, models.StatusPending).
				Updates(map[string]interface{}{"status": models.StatusCanceled, "responded_at": now}).Error
			if err != nil {
				return fmt.Errorf("failed to cancel owned-party invites: %w", err)
			}
			if err := tx.Where("id IN ?", ownedIDs).Delete(&models.Party{}).Error; err != nil {
				return fmt.Errorf("failed to delete owned parties: %w", err)
			}
		}
		err = tx.Model(&models.PartyMember{}).
			Where("user_id = ? AND left_at IS NULL", userID).
			Update("left_at", now).Error
		if err != nil {
			return fmt.Errorf("failed to close memberships: %w", err)
		}

		return tx.Delete(&user).Error
	})
}

// GetUser resolves a user by id.
func (s *AuthService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// UpdateDisplayName renames the caller.
func (s *AuthService) UpdateDisplayName(userID uuid.UUID, displayName string) (*models.User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, errors.New("display name is required")
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = name
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update display name: %w", err)
	}
	return user, nil
}

// SearchUsers finds users by display-name substring, excluding the caller.
func (s *AuthService) SearchUsers(callerID uuid.UUID, search string, limit, offset int) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{}).Where("id <> ?", callerID)
	if search != "" {
		query = query.Where("LOWER(display_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := query.Order("display_name ASC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.DisplayName,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
