package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/apperrors"
	"github.com/vocadeck/vocadeck-api/auth"
	"github.com/vocadeck/vocadeck-api/database"
	"github.com/vocadeck/vocadeck-api/models"
)

// AuthService handles registration, login, and profile management.
type AuthService struct {
	gw         *database.Gateway
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService constructs AuthService. bcryptCost below bcrypt.MinCost
// falls back to 12.
func NewAuthService(gw *database.Gateway, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = 12
	}
	return &AuthService{gw: gw, tokens: tokens, bcryptCost: bcryptCost}
}

// UpdateProfileParams carries optional profile changes; nil fields are
// left untouched.
type UpdateProfileParams struct {
	Name  *string
	Email *string
}

// Register creates a user with a normalized lowercase email and a bcrypt
// password hash, then issues a token. Duplicate emails (case-insensitive)
// yield ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{Email: email, Password: string(hash), Name: name}
	err = s.gw.Run(ctx, func(db *gorm.DB) error {
		var existing models.User
		lookup := db.Where("email = ?", email).First(&existing)
		if lookup.Error == nil {
			return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
		}
		if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
			return lookup.Error
		}
		return db.Create(user).Error
	})
	if err != nil {
		return nil, "", translateConflict(err)
	}

	token, err := s.tokens.CreateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials so callers cannot probe for
// registered addresses.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", email).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Logout is a no-op acknowledgement: tokens are not revoked server-side and
// expire naturally.
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return nil
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.First(&user, userID).Error
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// UpdateProfile applies name/email changes. An email change is normalized
// to lowercase and rejected with ErrConflict when taken by another user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, params UpdateProfileParams) (*models.User, error) {
	var user models.User
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		if err := db.First(&user, userID).Error; err != nil {
			return err
		}
		if params.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*params.Email))
			if email == "" {
				return fmt.Errorf("%w: email must not be empty", apperrors.ErrValidation)
			}
			if email != user.Email {
				var existing models.User
				lookup := db.Where("email = ? AND id <> ?", email, userID).First(&existing)
				if lookup.Error == nil {
					return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
				}
				if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
					return lookup.Error
				}
				user.Email = email
			}
		}
		if params.Name != nil {
			user.Name = strings.TrimSpace(*params.Name)
		}
		return db.Save(&user).Error
	})
	if err != nil {
		return nil, translateConflict(translateNotFound(err))
	}
	return &user, nil
}

// ChangePassword re-verifies the current password before accepting the new
// one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", apperrors.ErrValidation)
	}

	var user models.User
	err := s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.First(&user, userID).Error
	})
	if err != nil {
		return translateNotFound(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.gw.Run(ctx, func(db *gorm.DB) error {
		return db.Model(&user).Update("password", string(hash)).Error
	})
}
