package services

import (
	"context"

	"invoicer/models"
	"invoicer/utils"

	"github.com/jmoiron/sqlx"
)

type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

type RecentInvoice struct {
	ID         uint    `db:"id" json:"id"`
	Number     string  `db:"number" json:"number"`
	ClientName string  `db:"client_name" json:"clientName"`
	TotalTTC   float64 `db:"total_ttc" json:"totalTTC"`
	Status     string  `db:"status" json:"status"`
}

// DashboardOverview сводные показатели пользователя
type DashboardOverview struct {
	TotalClients     int             `json:"totalClients"`
	QuotesByStatus   []StatusCount   `json:"quotesByStatus"`
	InvoicesByStatus []StatusCount   `json:"invoicesByStatus"`
	TotalInvoiced    float64         `json:"totalInvoiced"`
	TotalCollected   float64         `json:"totalCollected"`
	Outstanding      float64         `json:"outstanding"`
	OverdueAmount    float64         `json:"overdueAmount"`
	RecentInvoices   []RecentInvoice `json:"recentInvoices"`
}

// DashboardService считает агрегаты прямыми SQL-запросами через sqlx
type DashboardService struct {
	db *sqlx.DB
}

func NewDashboardService(db *sqlx.DB) *DashboardService {
	return &DashboardService{db: db}
}

const recentInvoicesLimit = 5

func (s *DashboardService) Overview(ctx context.Context, userID uint) (*DashboardOverview, error) {
	out := &DashboardOverview{
		QuotesByStatus:   []StatusCount{},
		InvoicesByStatus: []StatusCount{},
		RecentInvoices:   []RecentInvoice{},
	}

	if err := s.db.GetContext(ctx, &out.TotalClients,
		s.db.Rebind(`SELECT COUNT(*) FROM clients WHERE user_id = ?`), userID); err != nil {
		return nil, NewUnexpected("failed to count clients", err)
	}

	if err := s.db.SelectContext(ctx, &out.QuotesByStatus,
		s.db.Rebind(`SELECT status, COUNT(*) AS count FROM quotes WHERE user_id = ? GROUP BY status ORDER BY status`), userID); err != nil {
		return nil, NewUnexpected("failed to aggregate quotes", err)
	}

	if err := s.db.SelectContext(ctx, &out.InvoicesByStatus,
		s.db.Rebind(`SELECT status, COUNT(*) AS count FROM invoices WHERE user_id = ? GROUP BY status ORDER BY status`), userID); err != nil {
		return nil, NewUnexpected("failed to aggregate invoices", err)
	}

	var totals struct {
		Invoiced float64 `db:"invoiced"`
		Overdue  float64 `db:"overdue"`
	}
	if err := s.db.GetContext(ctx, &totals, s.db.Rebind(`
		SELECT COALESCE(SUM(total_ttc), 0) AS invoiced,
		       COALESCE(SUM(CASE WHEN status = ? THEN total_ttc ELSE 0 END), 0) AS overdue
		FROM invoices WHERE user_id = ?`), string(models.InvoiceStatusOverdue), userID); err != nil {
		return nil, NewUnexpected("failed to sum invoices", err)
	}

	var collected float64
	if err := s.db.GetContext(ctx, &collected, s.db.Rebind(`
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p JOIN invoices i ON i.id = p.invoice_id
		WHERE i.user_id = ?`), userID); err != nil {
		return nil, NewUnexpected("failed to sum payments", err)
	}

	var overduePaid float64
	if err := s.db.GetContext(ctx, &overduePaid, s.db.Rebind(`
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p JOIN invoices i ON i.id = p.invoice_id
		WHERE i.user_id = ? AND i.status = ?`), userID, string(models.InvoiceStatusOverdue)); err != nil {
		return nil, NewUnexpected("failed to sum payments", err)
	}

	if err := s.db.SelectContext(ctx, &out.RecentInvoices, s.db.Rebind(`
		SELECT i.id, i.number, c.name AS client_name, i.total_ttc, i.status
		FROM invoices i JOIN clients c ON c.id = i.client_id
		WHERE i.user_id = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ?`), userID, recentInvoicesLimit); err != nil {
		return nil, NewUnexpected("failed to load recent invoices", err)
	}

	out.TotalInvoiced = utils.RoundMoney(totals.Invoiced)
	out.TotalCollected = utils.RoundMoney(collected)
	out.Outstanding = utils.FromCents(max(0, utils.ToCents(totals.Invoiced)-utils.ToCents(collected)))
	out.OverdueAmount = utils.FromCents(max(0, utils.ToCents(totals.Overdue)-utils.ToCents(overduePaid)))
	return out, nil
}
