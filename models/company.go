package models

import "time"

// CompanySettings хранит реквизиты компании пользователя, которые попадают в документы
type CompanySettings struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex" json:"userId"`
	LegalName string    `gorm:"column:legal_name;size:150" json:"legalName"`
	Address   string    `gorm:"column:address;size:255" json:"address"`
	Email     string    `gorm:"column:email;size:100" json:"email"`
	Phone     string    `gorm:"column:phone;size:30" json:"phone"`
	VATNumber string    `gorm:"column:vat_number;size:50" json:"vatNumber"`
	IBAN      string    `gorm:"column:iban;size:34" json:"iban"`
	Currency  string    `gorm:"column:currency;size:3;not null;default:'EUR'" json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CompanySettings) TableName() string {
	return "company_settings"
}

func (c *CompanySettings) CurrencyCode() string {
	if c == nil || c.Currency == "" {
		return "EUR"
	}
	return c.Currency
}
