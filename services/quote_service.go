package services

import (
	"context"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type LineItemDTO struct {
	Description string  `json:"description" validate:"required,max=255"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	VATRate     float64 `json:"vatRate" validate:"gte=0,lte=100"`
}

type CreateQuoteDTO struct {
	ClientID   uint          `json:"clientId" validate:"required"`
	ValidUntil *time.Time    `json:"validUntil"`
	Notes      string        `json:"notes" validate:"max=2000"`
	Items      []LineItemDTO `json:"items" validate:"required,min=1,dive"`
}

type ConvertQuoteDTO struct {
	DueDate *time.Time `json:"dueDate"`
}

const defaultPaymentTerm = 30 * 24 * time.Hour

type QuoteService struct {
	db        *gorm.DB
	validator *validator.Validate
	now       func() time.Time
}

func NewQuoteService(db *gorm.DB) *QuoteService {
	return &QuoteService{
		db:        db,
		validator: newValidator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func toLineItems(items []LineItemDTO) []models.LineItem {
	out := make([]models.LineItem, len(items))
	for i, it := range items {
		out[i] = models.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   utils.RoundMoney(it.UnitPrice),
			VATRate:     it.VATRate,
			Position:    i + 1,
		}
	}
	return out
}

func (s *QuoteService) Create(ctx context.Context, userID uint, dto CreateQuoteDTO) (*models.Quote, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}

	quote := &models.Quote{
		UserID:     userID,
		ClientID:   dto.ClientID,
		Status:     models.QuoteStatusDraft,
		ValidUntil: dto.ValidUntil,
		Notes:      dto.Notes,
	}
	for _, line := range toLineItems(dto.Items) {
		quote.Items = append(quote.Items, models.QuoteItem{LineItem: line})
	}
	quote.ComputeTotals()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureClient(tx, dto.ClientID, userID); err != nil {
			return err
		}
		number, err := nextNumber(tx, &models.Quote{}, "Q", userID, s.now())
		if err != nil {
			return NewUnexpected("failed to number quote", err)
		}
		quote.Number = number
		if err := tx.Create(quote).Error; err != nil {
			return NewUnexpected("failed to create quote", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogOperation("quote.create", userID, quote.ID, quote.Number)
	return quote, nil
}

func ensureClient(tx *gorm.DB, clientID, userID uint) error {
	var count int64
	if err := tx.Model(&models.Client{}).Where("id = ? AND user_id = ?", clientID, userID).Count(&count).Error; err != nil {
		return NewUnexpected("failed to load client", err)
	}
	if count == 0 {
		return NewNotFound("client not found")
	}
	return nil
}

func (s *QuoteService) List(ctx context.Context, userID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.WithContext(ctx).Preload("Client").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, NewUnexpected("failed to list quotes", err)
	}
	return quotes, nil
}

func (s *QuoteService) Get(ctx context.Context, id, userID uint) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.WithContext(ctx).Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&quote).Error
	if err != nil {
		return nil, notFoundOr(err, "quote not found")
	}
	return &quote, nil
}

// Convert выставляет счет по котировке: строки и итоги копируются, котировка становится CONVERTED
func (s *QuoteService) Convert(ctx context.Context, id, userID uint, dto ConvertQuoteDTO) (*models.Invoice, error) {
	quote, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !quote.CanConvert() {
		return nil, NewInvalidState("quote cannot be converted in status " + string(quote.Status))
	}

	now := s.now()
	due := now.Add(defaultPaymentTerm)
	if dto.DueDate != nil {
		due = dto.DueDate.UTC()
	}
	quoteID := quote.ID
	invoice := &models.Invoice{
		UserID:    userID,
		ClientID:  quote.ClientID,
		QuoteID:   &quoteID,
		Status:    models.InvoiceStatusUnpaid,
		IssueDate: now,
		DueDate:   due,
		Notes:     quote.Notes,
		TotalHT:   quote.TotalHT,
		TotalVAT:  quote.TotalVAT,
		TotalTTC:  quote.TotalTTC,
	}
	for _, it := range quote.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{LineItem: it.LineItem})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// статус проверяется повторно в UPDATE, чтобы котировку нельзя было выставить дважды
		res := tx.Model(&models.Quote{}).
			Where("id = ? AND status NOT IN ?", quote.ID, []models.QuoteStatus{models.QuoteStatusConverted, models.QuoteStatusRejected}).
			Update("status", models.QuoteStatusConverted)
		if res.Error != nil {
			return NewUnexpected("failed to convert quote", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewInvalidState("quote is already converted")
		}

		number, err := nextNumber(tx, &models.Invoice{}, "INV", userID, now)
		if err != nil {
			return NewUnexpected("failed to number invoice", err)
		}
		invoice.Number = number
		invoice.Reconcile(0, now)
		if err := tx.Create(invoice).Error; err != nil {
			return NewUnexpected("failed to create invoice", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogOperation("quote.convert", userID, quote.ID, invoice.Number)
	return invoice, nil
}
