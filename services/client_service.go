package services

import (
	"context"

	"invoicer/models"
	"invoicer/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type ClientDTO struct {
	Name        string `json:"name" validate:"required,max=150"`
	ContactName string `json:"contactName" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email,max=100"`
	Phone       string `json:"phone" validate:"max=30"`
	Address     string `json:"address" validate:"max=255"`
	VATNumber   string `json:"vatNumber" validate:"max=50"`
}

type ClientService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db, validator: newValidator()}
}

func (s *ClientService) Create(ctx context.Context, userID uint, dto ClientDTO) (*models.Client, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}
	client := &models.Client{UserID: userID}
	applyClientDTO(client, dto)
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, NewUnexpected("failed to create client", err)
	}
	utils.LogOperation("client.create", userID, client.ID, client.Name)
	return client, nil
}

func (s *ClientService) List(ctx context.Context, userID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&clients).Error; err != nil {
		return nil, NewUnexpected("failed to list clients", err)
	}
	return clients, nil
}

func (s *ClientService) Get(ctx context.Context, id, userID uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&client).Error; err != nil {
		return nil, notFoundOr(err, "client not found")
	}
	return &client, nil
}

func (s *ClientService) Update(ctx context.Context, id, userID uint, dto ClientDTO) (*models.Client, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}
	client, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyClientDTO(client, dto)
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, NewUnexpected("failed to update client", err)
	}
	return client, nil
}

// Delete удаляет клиента без документов
func (s *ClientService) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	var docs int64
	if err := s.db.WithContext(ctx).Model(&models.Quote{}).Where("client_id = ?", id).Count(&docs).Error; err != nil {
		return NewUnexpected("failed to delete client", err)
	}
	if docs == 0 {
		if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("client_id = ?", id).Count(&docs).Error; err != nil {
			return NewUnexpected("failed to delete client", err)
		}
	}
	if docs > 0 {
		return NewInvalidState("client has quotes or invoices")
	}
	if err := s.db.WithContext(ctx).Delete(&models.Client{}, id).Error; err != nil {
		return NewUnexpected("failed to delete client", err)
	}
	utils.LogOperation("client.delete", userID, id, "")
	return nil
}

func applyClientDTO(c *models.Client, dto ClientDTO) {
	c.Name = dto.Name
	c.ContactName = dto.ContactName
	c.Email = normalizeEmail(dto.Email)
	c.Phone = dto.Phone
	c.Address = dto.Address
	c.VATNumber = dto.VATNumber
}
