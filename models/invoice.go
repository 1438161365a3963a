package models

import (
	"time"

	"invoicer/utils"
)

// InvoiceStatus представляет статус счета
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusSent          InvoiceStatus = "SENT" // отправлен клиенту, оплат нет
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
)

type Invoice struct {
	ID        uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint          `gorm:"column:user_id;not null;index" json:"userId"`
	ClientID  uint          `gorm:"column:client_id;not null;index" json:"clientId"`
	Client    *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	QuoteID   *uint         `gorm:"column:quote_id;index" json:"quoteId,omitempty"`
	Number    string        `gorm:"column:number;not null;size:50;index" json:"number"`
	Status    InvoiceStatus `gorm:"column:status;type:varchar(20);not null;default:'UNPAID';index" json:"status"`
	IssueDate time.Time     `gorm:"column:issue_date;not null" json:"issueDate"`
	DueDate   time.Time     `gorm:"column:due_date;not null" json:"dueDate"`
	PaidAt    *time.Time    `gorm:"column:paid_at" json:"paidAt,omitempty"`
	Notes     string        `gorm:"column:notes;type:text" json:"notes"`
	TotalHT   float64       `gorm:"column:total_ht;type:decimal(12,2);not null;default:0" json:"totalHT"`
	TotalVAT  float64       `gorm:"column:total_vat;type:decimal(12,2);not null;default:0" json:"totalVAT"`
	TotalTTC  float64       `gorm:"column:total_ttc;type:decimal(12,2);not null;default:0" json:"totalTTC"`
	Items     []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments  []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (Invoice) TableName() string {
	return "invoices"
}

type InvoiceItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID uint `gorm:"column:invoice_id;not null;index" json:"invoiceId"`
	LineItem
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

func (inv *Invoice) ComputeTotals() {
	lines := make([]LineItem, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = it.LineItem
	}
	inv.TotalHT, inv.TotalVAT, inv.TotalTTC = Totals(lines)
}

// Reconcile выводит статус счета из суммы оплат.
// PaidAt выставляется только при переходе в PAID и не сбрасывается при откате.
func (inv *Invoice) Reconcile(totalPaid float64, now time.Time) {
	paid := utils.ToCents(totalPaid)
	total := utils.ToCents(inv.TotalTTC)

	switch {
	case paid >= total:
		if inv.Status != InvoiceStatusPaid || inv.PaidAt == nil {
			t := now
			inv.PaidAt = &t
		}
		inv.Status = InvoiceStatusPaid
	case paid > 0:
		inv.Status = InvoiceStatusPartiallyPaid
	case inv.DueDate.Before(utils.BeginningOfDay(now)):
		inv.Status = InvoiceStatusOverdue
	case inv.Status == InvoiceStatusSent:
		// остается SENT
	default:
		inv.Status = InvoiceStatusUnpaid
	}
}
