package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePaymentDTO представляет данные для создания платежа
type CreatePaymentDTO struct {
	InvoiceID uint       `json:"invoiceId" validate:"required"`
	Amount    float64    `json:"amount"`
	Date      *time.Time `json:"date"`
	Method    string     `json:"method" validate:"max=50"`
	Notes     string     `json:"notes" validate:"max=1000"`
	UserID    uint       `json:"-" validate:"required"`
}

// UpdatePaymentDTO частичное обновление платежа, nil-поля не меняются
type UpdatePaymentDTO struct {
	Amount *float64   `json:"amount"`
	Date   *time.Time `json:"date"`
	Method *string    `json:"method" validate:"omitempty,max=50"`
	Notes  *string    `json:"notes" validate:"omitempty,max=1000"`
	UserID uint       `json:"-" validate:"required"`
}

// PaymentSummary сводка по оплатам счета
type PaymentSummary struct {
	TotalAmount     float64 `json:"totalAmount"`
	TotalPaid       float64 `json:"totalPaid"`
	RemainingAmount float64 `json:"remainingAmount"`
	PaymentCount    int     `json:"paymentCount"`
	IsFullyPaid     bool    `json:"isFullyPaid"`
	PaymentProgress float64 `json:"paymentProgress"` // 0..100
}

// PaymentService ведет реестр оплат и пересчитывает статус счета после каждого изменения
type PaymentService struct {
	db        *gorm.DB
	validator *validator.Validate
	now       func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{
		db:        db,
		validator: newValidator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// lockInvoice загружает счет владельца с блокировкой строки до конца транзакции.
// userID == 0 означает системный вызов без проверки владельца.
func (s *PaymentService) lockInvoice(tx *gorm.DB, invoiceID, userID uint) (*models.Invoice, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	q = q.Where("id = ?", invoiceID)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}

	var invoice models.Invoice
	if err := q.First(&invoice).Error; err != nil {
		return nil, notFoundOr(err, "invoice not found")
	}
	return &invoice, nil
}

// paidCents возвращает сумму всех оплат по счету в центах, кроме excludeID
func paidCents(tx *gorm.DB, invoiceID, excludeID uint) (int64, int, error) {
	var payments []models.Payment
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&payments).Error; err != nil {
		return 0, 0, NewUnexpected("failed to load payments", err)
	}
	var total int64
	count := 0
	for _, p := range payments {
		if p.ID == excludeID {
			continue
		}
		total += utils.ToCents(p.Amount)
		count++
	}
	return total, count, nil
}

// reconcile пересчитывает статус счета по актуальному списку оплат
func (s *PaymentService) reconcile(tx *gorm.DB, invoice *models.Invoice) error {
	paid, _, err := paidCents(tx, invoice.ID, 0)
	if err != nil {
		return err
	}

	prev := invoice.Status
	invoice.Reconcile(utils.FromCents(paid), s.now())

	err = tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"status":  invoice.Status,
		"paid_at": invoice.PaidAt,
	}).Error
	if err != nil {
		return NewUnexpected("failed to update invoice status", err)
	}
	if prev != invoice.Status {
		utils.LogDebug("invoice %d status %s -> %s", invoice.ID, prev, invoice.Status)
	}
	return nil
}

// Create добавляет оплату к счету
func (s *PaymentService) Create(ctx context.Context, dto CreatePaymentDTO) (*models.Payment, error) {
	payment, err := s.create(ctx, dto)
	utils.GetMetrics().RecordPaymentOperation("create", err)
	return payment, err
}

func (s *PaymentService) create(ctx context.Context, dto CreatePaymentDTO) (*models.Payment, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}
	amount := utils.ToCents(dto.Amount)
	if amount <= 0 || math.IsNaN(dto.Amount) {
		return nil, NewInvalidArgument("payment amount must be positive")
	}

	date := s.now()
	if dto.Date != nil {
		date = dto.Date.UTC()
	}
	payment := &models.Payment{
		InvoiceID: dto.InvoiceID,
		Amount:    utils.FromCents(amount),
		Date:      date,
		Method:    dto.Method,
		Notes:     dto.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, dto.InvoiceID, dto.UserID)
		if err != nil {
			return err
		}
		paid, _, err := paidCents(tx, invoice.ID, 0)
		if err != nil {
			return err
		}
		if paid+amount > utils.ToCents(invoice.TotalTTC) {
			return NewInvalidArgument("payment amount exceeds the remaining invoice balance")
		}

		if err := tx.Create(payment).Error; err != nil {
			return NewUnexpected("failed to create payment", err)
		}
		return s.reconcile(tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	utils.LogOperation("payment.create", dto.UserID, payment.ID, fmt.Sprintf("invoice=%d amount=%.2f", payment.InvoiceID, payment.Amount))
	return payment, nil
}

// loadOwnedPayment загружает платеж, принадлежащий счету пользователя
func loadOwnedPayment(tx *gorm.DB, paymentID, userID uint) (*models.Payment, error) {
	var payment models.Payment
	err := tx.Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.id = ? AND invoices.user_id = ?", paymentID, userID).
		First(&payment).Error
	if err != nil {
		return nil, notFoundOr(err, "payment not found")
	}
	return &payment, nil
}

// Update изменяет оплату; сумма проверяется против остатка без учета самой оплаты
func (s *PaymentService) Update(ctx context.Context, paymentID uint, dto UpdatePaymentDTO) (*models.Payment, error) {
	payment, err := s.update(ctx, paymentID, dto)
	utils.GetMetrics().RecordPaymentOperation("update", err)
	return payment, err
}

func (s *PaymentService) update(ctx context.Context, paymentID uint, dto UpdatePaymentDTO) (*models.Payment, error) {
	if err := s.validator.Struct(dto); err != nil {
		return nil, validationError(err)
	}

	var payment *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = loadOwnedPayment(tx, paymentID, dto.UserID)
		if err != nil {
			return err
		}
		invoice, err := s.lockInvoice(tx, payment.InvoiceID, dto.UserID)
		if err != nil {
			return err
		}

		if dto.Amount != nil {
			amount := utils.ToCents(*dto.Amount)
			if amount <= 0 || math.IsNaN(*dto.Amount) {
				return NewInvalidArgument("payment amount must be positive")
			}
			others, _, err := paidCents(tx, invoice.ID, payment.ID)
			if err != nil {
				return err
			}
			if others+amount > utils.ToCents(invoice.TotalTTC) {
				return NewInvalidArgument("payment amount exceeds the remaining invoice balance")
			}
			payment.Amount = utils.FromCents(amount)
		}
		if dto.Date != nil {
			payment.Date = dto.Date.UTC()
		}
		if dto.Method != nil {
			payment.Method = *dto.Method
		}
		if dto.Notes != nil {
			payment.Notes = *dto.Notes
		}

		if err := tx.Save(payment).Error; err != nil {
			return NewUnexpected("failed to update payment", err)
		}
		return s.reconcile(tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	utils.LogOperation("payment.update", dto.UserID, payment.ID, fmt.Sprintf("invoice=%d amount=%.2f", payment.InvoiceID, payment.Amount))
	return payment, nil
}

// Delete удаляет оплату и пересчитывает статус счета
func (s *PaymentService) Delete(ctx context.Context, paymentID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := loadOwnedPayment(tx, paymentID, userID)
		if err != nil {
			return err
		}
		invoice, err := s.lockInvoice(tx, payment.InvoiceID, userID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Payment{}, payment.ID).Error; err != nil {
			return NewUnexpected("failed to delete payment", err)
		}
		return s.reconcile(tx, invoice)
	})
	utils.GetMetrics().RecordPaymentOperation("delete", err)
	if err != nil {
		return err
	}

	utils.LogOperation("payment.delete", userID, paymentID, "")
	return nil
}

// ListByInvoice возвращает оплаты счета, новые сверху
func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID, userID uint) ([]models.Payment, error) {
	if err := s.ensureInvoice(ctx, invoiceID, userID); err != nil {
		return nil, err
	}
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("date DESC").Order("id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, NewUnexpected("failed to list payments", err)
	}
	return payments, nil
}

func (s *PaymentService) ensureInvoice(ctx context.Context, invoiceID, userID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND user_id = ?", invoiceID, userID).
		Count(&count).Error
	if err != nil {
		return NewUnexpected("failed to load invoice", err)
	}
	if count == 0 {
		return NewNotFound("invoice not found")
	}
	return nil
}

// MarkFullyPaid создает оплату на весь остаток счета
func (s *PaymentService) MarkFullyPaid(ctx context.Context, invoiceID, userID uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, invoiceID, userID)
		if err != nil {
			return err
		}
		paid, _, err := paidCents(tx, invoice.ID, 0)
		if err != nil {
			return err
		}
		remaining := utils.ToCents(invoice.TotalTTC) - paid
		if remaining <= 0 {
			return NewInvalidArgument("invoice is already fully paid")
		}

		payment = &models.Payment{
			InvoiceID: invoice.ID,
			Amount:    utils.FromCents(remaining),
			Date:      s.now(),
			Method:    models.PaymentMethodManualCompletion,
		}
		if err := tx.Create(payment).Error; err != nil {
			return NewUnexpected("failed to create payment", err)
		}
		return s.reconcile(tx, invoice)
	})
	utils.GetMetrics().RecordPaymentOperation("mark_paid", err)
	if err != nil {
		return nil, err
	}

	utils.LogOperation("payment.mark_paid", userID, payment.ID, fmt.Sprintf("invoice=%d amount=%.2f", invoiceID, payment.Amount))
	return payment, nil
}

// Summary считает сводку по оплатам счета
func (s *PaymentService) Summary(ctx context.Context, invoiceID, userID uint) (*PaymentSummary, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", invoiceID, userID).First(&invoice).Error
	if err != nil {
		return nil, notFoundOr(err, "invoice not found")
	}
	paid, count, err := paidCents(s.db.WithContext(ctx), invoiceID, 0)
	if err != nil {
		return nil, err
	}

	total := utils.ToCents(invoice.TotalTTC)
	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}
	progress := 100.0
	if total > 0 {
		progress = math.Min(100, math.Round(float64(paid)/float64(total)*10000)/100)
	}

	return &PaymentSummary{
		TotalAmount:     utils.FromCents(total),
		TotalPaid:       utils.FromCents(paid),
		RemainingAmount: utils.FromCents(remaining),
		PaymentCount:    count,
		IsFullyPaid:     remaining <= 0,
		PaymentProgress: progress,
	}, nil
}

// RecomputeStatus пересчитывает статус счета вне операций с оплатами (планировщик, смена дат)
func (s *PaymentService) RecomputeStatus(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		invoice, err = s.lockInvoice(tx, invoiceID, 0)
		if err != nil {
			return err
		}
		return s.reconcile(tx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
