package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prayershare/backend/internal/models"
	"github.com/prayershare/backend/pkg/utils"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

type RegisterInput struct {
	Username string `validate:"required,min=3,max=150,alphanum"`
	Password string `validate:"required,min=8,max=72"`
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		PasswordHash: hash,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("username = ?", in.Username).Count(&existing).Error; err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: username %q is taken", ErrConflict, in.Username)
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate returns the user for a username and password pair. Unknown
// usernames and wrong passwords both yield ErrNotFound.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrNotFound
	}
	return &user, nil
}
