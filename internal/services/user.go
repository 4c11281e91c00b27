package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/internal/utils"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	projects  *ProjectService
	jwtConfig *config.JWTConfig
}

func NewUserService(db *gorm.DB, projects *ProjectService, jwtCfg *config.JWTConfig) *UserService {
	return &UserService{
		db:        db,
		projects:  projects,
		jwtConfig: jwtCfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expire_at"`
	User     *models.User `json:"user"`
}

type UserSettingsInput struct {
	Notifications *bool   `json:"notifications"`
	Privacy       *string `json:"privacy" binding:"omitempty,privacy"`
}

type UpdateProfileRequest struct {
	Name     *string            `json:"name" binding:"omitempty,min=1,max=100"`
	Bio      *string            `json:"bio" binding:"omitempty,max=500"`
	Avatar   *string            `json:"avatar" binding:"omitempty,max=500"`
	Settings *UserSettingsInput `json:"settings"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new account. Emails compare case-insensitively.
func (s *UserService) CreateUser(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, response.NewBadRequest("name and email are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, response.NewConflict("email already registered")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hash,
		Settings: models.UserSettings{Notifications: true, Privacy: models.PrivacyPublic},
		Role:     "user",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("email already registered")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return &user, nil
}

// Authenticate never reveals whether the email or the password was wrong.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, response.NewUnauthorized("invalid email or password")
	}
	return &user, nil
}

// Register creates the account and signs a token for it.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	user, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// Login authenticates and signs a token, recording the login time.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *models.User) (*AuthResponse, error) {
	hours := 24
	if s.jwtConfig != nil && s.jwtConfig.ExpireHour > 0 {
		hours = s.jwtConfig.ExpireHour
	}
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, hours)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}
	return &AuthResponse{
		Token:    token,
		ExpireAt: time.Now().Add(time.Duration(hours) * time.Hour),
		User:     user,
	}, nil
}

// GetProfile returns the user without credential data.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// UpdateProfile replaces the provided fields. Only the subject may edit.
func (s *UserService) UpdateProfile(ctx context.Context, caller Caller, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	if err := caller.requireUser(); err != nil {
		return nil, err
	}
	if !caller.Is(userID) {
		return nil, response.NewForbidden("you can only edit your own profile")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Settings != nil {
		if req.Settings.Notifications != nil {
			updates["settings_notifications"] = *req.Settings.Notifications
		}
		if req.Settings.Privacy != nil {
			updates["settings_privacy"] = *req.Settings.Privacy
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// DeleteUser removes the account. Owned projects with at most one
// collaborator go with it; the rest keep a dangling owner reference.
// Steps run in sequence without a transaction; reconciliation repairs
// anything a crash leaves behind.
func (s *UserService) DeleteUser(ctx context.Context, caller Caller, userID uint) error {
	if err := caller.requireUser(); err != nil {
		return err
	}
	if !caller.Is(userID) && !caller.IsAdmin() {
		return response.NewForbidden("you can only delete your own account")
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	removed, err := s.projects.DeleteOwnedOnAccountRemoval(ctx, userID)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if err := db.Where("user_id = ? OR friend_id = ?", userID, userID).Delete(&models.UserFriend{}).Error; err != nil {
		return fmt.Errorf("removing friend edges: %w", err)
	}
	if err := db.Where("requester_id = ? OR addressee_id = ?", userID, userID).Delete(&models.Friendship{}).Error; err != nil {
		return fmt.Errorf("removing friendships: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.ProjectCollaborator{}).Error; err != nil {
		return fmt.Errorf("removing collaborations: %w", err)
	}
	if err := db.Delete(&models.User{}, userID).Error; err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	s.projects.invalidateFeeds(ctx)

	logger.Info().Uint("user_id", userID).Int("projects_removed", removed).Msg("account deleted")
	return nil
}
