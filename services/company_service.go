package services

import (
	"context"
	"errors"
	"strings"

	"invoicer/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type CompanyDTO struct {
	LegalName string `json:"legalName" validate:"max=150"`
	Address   string `json:"address" validate:"max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=100"`
	Phone     string `json:"phone" validate:"max=30"`
	VATNumber string `json:"vatNumber" validate:"max=50"`
	IBAN      string `json:"iban" validate:"max=34"`
	Currency  string `json:"currency" validate:"omitempty,len=3"`
}

type CompanyService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db, validator: newValidator()}
}

// Get возвращает реквизиты; если они еще не заполнены, пустую запись
func (s *CompanyService) Get(ctx context.Context, userID uint) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.CompanySettings{UserID: userID, Currency: "EUR"}, nil
	}
	if err != nil {
		return nil, NewUnexpected("failed to load company settings", err)
	}
	return &settings, nil
}

func (s *CompanyService) Update(ctx context.Context, userID uint, dto CompanyDTO) (*models.CompanySettings, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.LegalName = dto.LegalName
	settings.Address = dto.Address
	settings.Email = normalizeEmail(dto.Email)
	settings.Phone = dto.Phone
	settings.VATNumber = dto.VATNumber
	settings.IBAN = strings.ReplaceAll(strings.ToUpper(dto.IBAN), " ", "")
	if dto.Currency != "" {
		settings.Currency = strings.ToUpper(dto.Currency)
	}

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, NewUnexpected("failed to save company settings", err)
	}
	return settings, nil
}
