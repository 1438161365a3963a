package services

import (
	"context"
	"strings"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"gorm.io/gorm"
)

const (
	SigningSessionTTL  = 30 * 24 * time.Hour
	SignatureOTPTTL    = 15 * time.Minute
	signatureOTPDigits = 6
)

// SignatureService ведет подписание котировок клиентом по одноразовому коду
type SignatureService struct {
	db     *gorm.DB
	mailer Mailer
	sms    SMSSender
	now    func() time.Time
	code   func() (string, error)
}

// NewSignatureService создает сервис подписания; sms может быть nil
func NewSignatureService(db *gorm.DB, mailer Mailer, sms SMSSender) *SignatureService {
	return &SignatureService{
		db:     db,
		mailer: mailer,
		sms:    sms,
		now:    func() time.Time { return time.Now().UTC() },
		code:   func() (string, error) { return utils.GenerateNumericCode(signatureOTPDigits) },
	}
}

// CreateSignature открывает сессию подписания котировки
func (s *SignatureService) CreateSignature(ctx context.Context, quoteID, userID uint) (*models.Signature, error) {
	var quote models.Quote
	err := s.db.WithContext(ctx).Preload("Client").
		Where("id = ? AND user_id = ?", quoteID, userID).
		First(&quote).Error
	if err != nil {
		return nil, notFoundOr(err, "quote not found")
	}
	if !quote.CanSign() {
		return nil, NewInvalidState("quote cannot be signed in status " + string(quote.Status))
	}
	if !quote.Client.HasContactEmail() {
		return nil, NewInvalidState("client contact email is missing")
	}

	session := &models.Signature{
		QuoteID:   quote.ID,
		ExpiresAt: s.now().Add(SigningSessionTTL),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, NewUnexpected("failed to create signature", err)
	}

	utils.LogOperation("signature.create", userID, session.ID, quote.Number)
	return session, nil
}

// GetSignature возвращает строку подписания с котировкой
func (s *SignatureService) GetSignature(ctx context.Context, id uint) (*models.Signature, error) {
	var sig models.Signature
	err := s.db.WithContext(ctx).Preload("Quote").Preload("Quote.Items").First(&sig, id).Error
	if err != nil {
		return nil, notFoundOr(err, "signature not found")
	}
	return &sig, nil
}

// GenerateOTPCode выдает новый код подписания и отправляет его клиенту.
// Возвращает новую строку с кодом; подписывать нужно по ее ID.
func (s *SignatureService) GenerateOTPCode(ctx context.Context, signatureID uint) (*models.Signature, error) {
	var session models.Signature
	if err := s.db.WithContext(ctx).First(&session, signatureID).Error; err != nil {
		return nil, notFoundOr(err, "signature not found")
	}

	var quote models.Quote
	if err := s.db.WithContext(ctx).Preload("Client").First(&quote, session.QuoteID).Error; err != nil {
		return nil, notFoundOr(err, "quote not found")
	}
	if !quote.CanSign() {
		return nil, NewInvalidState("quote cannot be signed in status " + string(quote.Status))
	}
	if !quote.Client.HasContactEmail() {
		return nil, NewInvalidState("client contact email is missing")
	}

	code, err := s.code()
	if err != nil {
		return nil, NewUnexpected("failed to generate OTP", err)
	}

	otp := &models.Signature{
		QuoteID:   quote.ID,
		OTPCode:   &code,
		ExpiresAt: s.now().Add(SignatureOTPTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(otp).Error; err != nil {
			return NewUnexpected("failed to store OTP", err)
		}
		subject, body := signatureOTPEmail(quote.Number, code)
		if err := s.mailer.SendEmail(quote.Client.Email, subject, body); err != nil {
			return NewUnexpected("failed to send OTP email", err)
		}
		return nil
	})
	if err != nil {
		utils.GetMetrics().RecordOTP("signature", "send_failed")
		return nil, err
	}
	utils.GetMetrics().RecordOTP("signature", "issued")

	// SMS дублирует письмо и не влияет на результат
	if s.sms != nil && strings.TrimSpace(quote.Client.Phone) != "" {
		if err := s.sms.SendSMS(quote.Client.Phone, "Your signing code for quote "+quote.Number+": "+code); err != nil {
			utils.LogError("signature %d: %v", otp.ID, err)
		}
	}

	utils.LogOperation("signature.otp", quote.UserID, otp.ID, quote.Number)
	return otp, nil
}

// SignQuote подписывает котировку кодом. Код срабатывает ровно один раз.
func (s *SignatureService) SignQuote(ctx context.Context, signatureID uint, otpCode string) (*models.Signature, error) {
	otpCode = strings.TrimSpace(otpCode)
	if otpCode == "" {
		return nil, NewInvalidArgument("OTP code is required")
	}

	now := s.now()
	var sig models.Signature
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// условный UPDATE: из двух одновременных попыток пройдет только одна
		res := tx.Model(&models.Signature{}).
			Where("id = ? AND otp_code = ? AND otp_used = ? AND expires_at >= ?", signatureID, otpCode, false, now).
			Updates(map[string]interface{}{"otp_used": true, "signed_at": now})
		if res.Error != nil {
			return NewUnexpected("failed to sign quote", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewInvalidArgument("invalid or expired OTP")
		}

		if err := tx.First(&sig, signatureID).Error; err != nil {
			return NewUnexpected("failed to load signature", err)
		}
		// выставленную или отклоненную котировку подписать нельзя; код при этом не тратится
		res = tx.Model(&models.Quote{}).
			Where("id = ? AND status IN ?", sig.QuoteID, models.SignableQuoteStatuses()).
			Update("status", models.QuoteStatusSigned)
		if res.Error != nil {
			return NewUnexpected("failed to update quote", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewInvalidState("quote can no longer be signed")
		}
		return nil
	})
	if err != nil {
		utils.GetMetrics().RecordOTP("signature", "rejected")
		return nil, err
	}
	utils.GetMetrics().RecordOTP("signature", "verified")

	utils.LogOperation("signature.sign", 0, sig.ID, "quote signed")
	return &sig, nil
}
