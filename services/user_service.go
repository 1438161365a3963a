package services

import (
	"context"
	"errors"
	"strings"

	"invoicer/models"
	"invoicer/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=50"`
	LastName  string `json:"lastName" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=8,password"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, validator: newValidator()}
}

// CreateUser создает нового пользователя
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	// Проверяем, существует ли пользователь с таким email
	if _, err := s.FindByEmail(ctx, req.Email); err == nil {
		return nil, NewInvalidArgument("user with this email already exists")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, NewUnexpected("failed to create user", err)
	}

	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Password:  hashedPassword,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, NewUnexpected("failed to create user", err)
	}

	utils.LogOperation("user.create", user.ID, user.ID, user.Email)
	return user, nil
}

// Authenticate проверяет email и пароль
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewUnauthorized("invalid email or password")
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, NewUnauthorized("invalid email or password")
	}
	return user, nil
}

// GetByID ищет пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return &user, nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(TRIM(email)) = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if _, err := s.FindByEmail(ctx, email); err == nil {
				return nil, NewInvalidArgument("user with this email already exists")
			} else if !IsKind(err, KindNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, NewUnexpected("failed to update user", err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, user.Password) {
		return NewInvalidArgument("current password is incorrect")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return NewUnexpected("failed to change password", err)
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hashed).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return NewUnexpected("failed to change password", err)
	}

	utils.LogOperation("user.password", id, id, "password changed")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
