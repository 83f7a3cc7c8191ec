package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func init() {
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

// Credentials is a register or login request.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserService registers and authenticates users.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a user. A taken username is ErrConflict.
func (s *UserService) Register(ctx context.Context, in Credentials) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("username %q: %w", in.Username, ErrConflict)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: in.Username, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks a username and password pair. Any mismatch is ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, in Credentials) (*models.User, error) {
	user, err := s.ByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user %d", id)
	}
	return &user, nil
}

func (s *UserService) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "user %q", username)
	}
	return &user, nil
}

// PostCount is how many posts the user has written.
func (s *UserService) PostCount(ctx context.Context, user *models.User) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&n).Error
	return n, err
}
