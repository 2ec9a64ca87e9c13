package service

import (
	"context"
	"fmt"
	"time"

	"chall_zone/internal/common"
	"chall_zone/internal/common/security"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/permission"
	"chall_zone/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// Revoker invalidates tokens before they expire.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type AuthService struct {
	store   Store
	tokens  *security.TokenIssuer
	revoker Revoker
	log     *logrus.Logger
}

func NewAuthService(store Store, tokens *security.TokenIssuer, revoker Revoker, log *logrus.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, revoker: revoker, log: log}
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type AuthResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := requireText("username", req.Username); err != nil {
		return nil, err
	}
	if err := security.ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		taken, err := repo.UserExists(ctx, req.Username)
		if err != nil {
			return err
		}
		if taken {
			return common.AlreadyExists(common.EntityUser, req.Username)
		}

		hash, err := security.HashPassword(req.Password)
		if err != nil {
			return err
		}
		user, err = repo.CreateUser(ctx, req.Username, hash)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	var user *model.User
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		user, err = repo.GetUser(ctx, req.Username)
		return err
	})
	if err != nil {
		if common.IsNotFound(err, common.EntityUser) {
			return nil, common.ErrUnauthorized // same answer as a wrong password
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPassword(user.PasswordHash, req.Password) {
		return nil, common.ErrUnauthorized
	}
	return s.respond(user)
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims security.Claims) error {
	if err := s.revoker.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return err
	}
	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// ChangePassword replaces the caller's password and lifts a forced reset.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := security.ValidateNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return s.store.Do(ctx, func(repo *repository.Repository) error {
		user, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetUser, user.ID); err != nil {
			return err
		}
		if !security.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return fmt.Errorf("current password is wrong: %w", common.ErrUnauthorized)
		}

		hash, err := security.HashPassword(req.NewPassword)
		if err != nil {
			return err
		}
		fields := user.Editable()
		fields.PasswordHash = hash
		fields.RequireNewPassword = false
		return repo.EditUser(ctx, user.ID, fields)
	})
}

// ForcePasswordReset flags an account so it cannot post until its owner
// changes the password.
func (s *AuthService) ForcePasswordReset(ctx context.Context, actorID int64, username string) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, actorID)
		if err != nil {
			return err
		}
		target, err := repo.GetUser(ctx, username)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetUser, target.ID); err != nil {
			return err
		}

		fields := target.Editable()
		fields.RequireNewPassword = true
		if err := repo.EditUser(ctx, target.ID, fields); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"actor_id": actorID, "user_id": target.ID}).Warn("password reset forced")
		return nil
	})
}

func (s *AuthService) respond(user *model.User) (*AuthResponse, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}
