package models

import "time"

// QuoteStatus представляет статус котировки
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "DRAFT"
	QuoteStatusSent      QuoteStatus = "SENT"
	QuoteStatusAccepted  QuoteStatus = "ACCEPTED"
	QuoteStatusRejected  QuoteStatus = "REJECTED"
	QuoteStatusSigned    QuoteStatus = "SIGNED"
	QuoteStatusConverted QuoteStatus = "CONVERTED" // выставлен счет
)

type Quote struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint        `gorm:"column:user_id;not null;index" json:"userId"`
	ClientID   uint        `gorm:"column:client_id;not null;index" json:"clientId"`
	Client     *Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Number     string      `gorm:"column:number;not null;size:50;index" json:"number"`
	Status     QuoteStatus `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'" json:"status"`
	ValidUntil *time.Time  `gorm:"column:valid_until" json:"validUntil,omitempty"`
	Notes      string      `gorm:"column:notes;type:text" json:"notes"`
	TotalHT    float64     `gorm:"column:total_ht;type:decimal(12,2);not null;default:0" json:"totalHT"`
	TotalVAT   float64     `gorm:"column:total_vat;type:decimal(12,2);not null;default:0" json:"totalVAT"`
	TotalTTC   float64     `gorm:"column:total_ttc;type:decimal(12,2);not null;default:0" json:"totalTTC"`
	Items      []QuoteItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (Quote) TableName() string {
	return "quotes"
}

type QuoteItem struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	QuoteID uint `gorm:"column:quote_id;not null;index" json:"quoteId"`
	LineItem
}

func (QuoteItem) TableName() string {
	return "quote_items"
}

// ComputeTotals пересчитывает итоги по строкам
func (q *Quote) ComputeTotals() {
	lines := make([]LineItem, len(q.Items))
	for i, it := range q.Items {
		lines[i] = it.LineItem
	}
	q.TotalHT, q.TotalVAT, q.TotalTTC = Totals(lines)
}

// SignableQuoteStatuses статусы, в которых котировку еще можно подписать
func SignableQuoteStatuses() []QuoteStatus {
	return []QuoteStatus{QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted}
}

func (q *Quote) CanSign() bool {
	for _, st := range SignableQuoteStatuses() {
		if q.Status == st {
			return true
		}
	}
	return false
}

// CanConvert сообщает, можно ли выставить по котировке счет
func (q *Quote) CanConvert() bool {
	return q.Status != QuoteStatusConverted && q.Status != QuoteStatusRejected
}
