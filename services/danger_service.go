package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"gorm.io/gorm"
)

const (
	DangerOTPTTL    = 10 * time.Minute
	dangerOTPDigits = 8
)

// DangerService защищает сброс данных одноразовым кодом, отправленным на почту пользователя
type DangerService struct {
	db     *gorm.DB
	store  DangerOTPStore
	mailer Mailer
	now    func() time.Time
	code   func() (string, error)
}

func NewDangerService(db *gorm.DB, store DangerOTPStore, mailer Mailer) *DangerService {
	return &DangerService{
		db:     db,
		store:  store,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
		code:   func() (string, error) { return utils.GenerateNumericCode(dangerOTPDigits) },
	}
}

// RequestOTP выдает новый код (старый перестает действовать) и отправляет его пользователю
func (s *DangerService) RequestOTP(ctx context.Context, user *models.User) error {
	code, err := s.code()
	if err != nil {
		return NewUnexpected("failed to generate OTP", err)
	}
	previous, err := s.store.Get(ctx)
	if err != nil {
		return NewUnexpected("failed to read OTP", err)
	}
	otp := DangerOTP{Code: code, ExpiresAt: s.now().Add(DangerOTPTTL)}
	if err := s.store.Put(ctx, otp); err != nil {
		return NewUnexpected("failed to store OTP", err)
	}

	subject, body := dangerZoneOTPEmail(code)
	if err := s.mailer.SendEmail(user.Email, subject, body); err != nil {
		utils.GetMetrics().RecordOTP("danger", "send_failed")
		if rerr := s.restore(ctx, previous); rerr != nil {
			utils.LogError("danger zone: failed to restore previous code: %v", rerr)
		}
		return NewUnexpected("failed to send OTP email", err)
	}
	utils.GetMetrics().RecordOTP("danger", "issued")

	utils.LogOperation("danger.otp", user.ID, user.ID, "danger zone code issued")
	return nil
}

// restore возвращает код, действовавший до неудачной отправки письма
func (s *DangerService) restore(ctx context.Context, previous *DangerOTP) error {
	if previous == nil || s.now().After(previous.ExpiresAt) {
		return s.store.Clear(ctx)
	}
	return s.store.Put(ctx, *previous)
}

func (s *DangerService) verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	current, err := s.store.Get(ctx)
	if err != nil {
		return NewUnexpected("failed to read OTP", err)
	}
	if code == "" || current == nil ||
		subtle.ConstantTimeCompare([]byte(current.Code), []byte(code)) != 1 ||
		s.now().After(current.ExpiresAt) {
		utils.GetMetrics().RecordOTP("danger", "rejected")
		return NewInvalidArgument("invalid or expired OTP")
	}
	utils.GetMetrics().RecordOTP("danger", "verified")
	return nil
}

// resetTables таблицы бизнес-данных в порядке удаления (зависимые первыми); users не трогаем
var resetTables = []interface{}{
	&models.Payment{},
	&models.Signature{},
	&models.InvoiceItem{},
	&models.Invoice{},
	&models.QuoteItem{},
	&models.Quote{},
	&models.Client{},
	&models.CompanySettings{},
}

// ResetApp удаляет все бизнес-данные, кроме пользователей. Код после этого остается действительным.
func (s *DangerService) ResetApp(ctx context.Context, userID uint, code string) error {
	if err := s.verify(ctx, code); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range resetTables {
			if err := all.Delete(model).Error; err != nil {
				return NewUnexpected("failed to reset data", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogOperation("danger.reset_app", userID, 0, "business data deleted")
	return nil
}

// ResetAll сбрасывает состояние опасной зоны: текущий код аннулируется
func (s *DangerService) ResetAll(ctx context.Context, userID uint, code string) error {
	if err := s.verify(ctx, code); err != nil {
		return err
	}
	if err := s.store.Clear(ctx); err != nil {
		return NewUnexpected("failed to clear OTP", err)
	}

	utils.LogOperation("danger.reset_all", userID, 0, "danger zone state cleared")
	return nil
}
