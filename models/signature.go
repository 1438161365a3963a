package models

import "time"

// Signature строка процесса подписания котировки.
// Строка без OTPCode это сессия подписания (ссылка для клиента),
// строка с OTPCode это выданный одноразовый код.
type Signature struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	QuoteID   uint       `gorm:"column:quote_id;not null;index" json:"quoteId"`
	Quote     *Quote     `gorm:"foreignKey:QuoteID" json:"-"`
	OTPCode   *string    `gorm:"column:otp_code;size:6" json:"-"`
	OTPUsed   bool       `gorm:"column:otp_used;not null;default:false" json:"otpUsed"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null" json:"expiresAt"`
	SignedAt  *time.Time `gorm:"column:signed_at" json:"signedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Signature) TableName() string {
	return "signatures"
}

func (s *Signature) IsSession() bool {
	return s.OTPCode == nil
}

func (s *Signature) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
