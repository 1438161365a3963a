package services

import (
	"context"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InvoiceSchedulerService раз в день переводит просроченные счета в OVERDUE
type InvoiceSchedulerService struct {
	db       *gorm.DB
	payments *PaymentService
	cron     *cron.Cron
	spec     string
	now      func() time.Time
}

// NewInvoiceSchedulerService создает планировщик; spec в формате cron (5 полей)
func NewInvoiceSchedulerService(db *gorm.DB, payments *PaymentService, spec string) *InvoiceSchedulerService {
	return &InvoiceSchedulerService{
		db:       db,
		payments: payments,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		spec:     spec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start запускает планировщик
func (s *InvoiceSchedulerService) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		n, err := s.ProcessOverdueInvoices(context.Background())
		if err != nil {
			utils.LogError("overdue sweep failed: %v", err)
			return
		}
		utils.LogInfo("overdue sweep: %d invoice(s) marked overdue", n)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик; контекст завершается, когда текущий запуск доработает
func (s *InvoiceSchedulerService) Stop() context.Context {
	return s.cron.Stop()
}

// ProcessOverdueInvoices пересчитывает статус неоплаченных счетов с прошедшим сроком
func (s *InvoiceSchedulerService) ProcessOverdueInvoices(ctx context.Context) (int, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status IN ? AND due_date < ?",
			[]models.InvoiceStatus{models.InvoiceStatusUnpaid, models.InvoiceStatusSent},
			utils.BeginningOfDay(s.now())).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		invoice, err := s.payments.RecomputeStatus(ctx, id)
		if err != nil {
			utils.LogError("overdue sweep: invoice %d: %v", id, err)
			continue
		}
		if invoice.Status == models.InvoiceStatusOverdue {
			swept++
		}
	}
	utils.GetMetrics().RecordSwept(swept)
	return swept, nil
}
