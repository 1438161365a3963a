package models

import "invoicer/utils"

// LineItem общие поля строки документа (котировки или счета)
type LineItem struct {
	Description string  `gorm:"column:description;not null;size:255" json:"description"`
	Quantity    float64 `gorm:"column:quantity;type:decimal(12,2);not null" json:"quantity"`
	UnitPrice   float64 `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unitPrice"`
	VATRate     float64 `gorm:"column:vat_rate;type:decimal(5,2);not null;default:0" json:"vatRate"` // в процентах
	Position    int     `gorm:"column:position;not null;default:0" json:"position"`
}

// NetAmount сумма строки без НДС
func (l LineItem) NetAmount() float64 {
	return utils.RoundMoney(l.Quantity * l.UnitPrice)
}

func (l LineItem) VATAmount() float64 {
	return utils.RoundMoney(l.NetAmount() * l.VATRate / 100)
}

// Totals считает суммы документа: без НДС, НДС и итого
func Totals(items []LineItem) (ht, vat, ttc float64) {
	var htCents, vatCents int64
	for _, it := range items {
		htCents += utils.ToCents(it.NetAmount())
		vatCents += utils.ToCents(it.VATAmount())
	}
	return utils.FromCents(htCents), utils.FromCents(vatCents), utils.FromCents(htCents + vatCents)
}
