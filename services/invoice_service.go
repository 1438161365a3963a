package services

import (
	"context"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type CreateInvoiceDTO struct {
	ClientID uint          `json:"clientId" validate:"required"`
	DueDate  *time.Time    `json:"dueDate"`
	Notes    string        `json:"notes" validate:"max=2000"`
	Items    []LineItemDTO `json:"items" validate:"required,min=1,dive"`
}

type InvoiceService struct {
	db        *gorm.DB
	payments  *PaymentService
	validator *validator.Validate
	now       func() time.Time
}

func NewInvoiceService(db *gorm.DB, payments *PaymentService) *InvoiceService {
	return &InvoiceService{
		db:        db,
		payments:  payments,
		validator: newValidator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *InvoiceService) Create(ctx context.Context, userID uint, dto CreateInvoiceDTO) (*models.Invoice, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	due := now.Add(defaultPaymentTerm)
	if dto.DueDate != nil {
		due = dto.DueDate.UTC()
	}
	invoice := &models.Invoice{
		UserID:    userID,
		ClientID:  dto.ClientID,
		Status:    models.InvoiceStatusUnpaid,
		IssueDate: now,
		DueDate:   due,
		Notes:     dto.Notes,
	}
	for _, line := range toLineItems(dto.Items) {
		invoice.Items = append(invoice.Items, models.InvoiceItem{LineItem: line})
	}
	invoice.ComputeTotals()
	invoice.Reconcile(0, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureClient(tx, dto.ClientID, userID); err != nil {
			return err
		}
		number, err := nextNumber(tx, &models.Invoice{}, "INV", userID, now)
		if err != nil {
			return NewUnexpected("failed to number invoice", err)
		}
		invoice.Number = number
		if err := tx.Create(invoice).Error; err != nil {
			return NewUnexpected("failed to create invoice", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogOperation("invoice.create", userID, invoice.ID, invoice.Number)
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, userID uint, status string) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Preload("Client").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var invoices []models.Invoice
	if err := q.Order("created_at DESC").Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, NewUnexpected("failed to list invoices", err)
	}
	return invoices, nil
}

func (s *InvoiceService) Get(ctx context.Context, id, userID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&invoice).Error
	if err != nil {
		return nil, notFoundOr(err, "invoice not found")
	}
	return &invoice, nil
}

// MarkSent помечает счет отправленным; допустимо только пока по нему нет оплат
func (s *InvoiceService) MarkSent(ctx context.Context, id, userID uint) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if len(invoice.Payments) > 0 || invoice.Status == models.InvoiceStatusPaid {
		return nil, NewInvalidState("invoice already has payments")
	}

	err = s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", models.InvoiceStatusSent).Error
	if err != nil {
		return nil, NewUnexpected("failed to update invoice", err)
	}

	// пересчет оставит SENT или переведет в OVERDUE, если срок уже прошел
	updated, err := s.payments.RecomputeStatus(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Status = updated.Status
	invoice.PaidAt = updated.PaidAt

	utils.LogOperation("invoice.send", userID, invoice.ID, string(invoice.Status))
	return invoice, nil
}
