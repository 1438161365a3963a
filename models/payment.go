package models

import "time"

// PaymentMethodManualCompletion метод платежа, создаваемого при ручном закрытии счета
const PaymentMethodManualCompletion = "Manual Completion"

// Payment представляет оплату по счету
type Payment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID uint      `gorm:"column:invoice_id;not null;index" json:"invoiceId"`
	Invoice   *Invoice  `gorm:"foreignKey:InvoiceID" json:"-"`
	Amount    float64   `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Date      time.Time `gorm:"column:date;not null" json:"date"`
	Method    string    `gorm:"column:method;size:50" json:"method"`
	Notes     string    `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName возвращает имя таблицы для модели Payment
func (Payment) TableName() string {
	return "payments"
}
