package services

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/models"
)

func TestDashboardOverview(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	client := seedClient(t, db, user.ID, "client@example.com")
	seedClient(t, db, other.ID, "foreign@example.com")
	seedQuote(t, db, user.ID, client.ID)

	paid := seedInvoice(t, db, user.ID, client.ID, 100, time.Now().AddDate(0, 0, 10))
	seedInvoice(t, db, user.ID, client.ID, 50, time.Now().AddDate(0, 0, -10))

	payments := NewPaymentService(db)
	_, err := payments.Create(ctx, CreatePaymentDTO{InvoiceID: paid.ID, Amount: 40, UserID: user.ID})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	s := NewDashboardService(sqlx.NewDb(sqlDB, "sqlite3"))

	// статусы считаются по уже пересчитанным счетам
	var late models.Invoice
	require.NoError(t, db.Where("total_ttc = ?", 50).First(&late).Error)
	_, err = payments.RecomputeStatus(ctx, late.ID)
	require.NoError(t, err)

	overview, err := s.Overview(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, overview.TotalClients)
	assert.Equal(t, []StatusCount{{Status: "SENT", Count: 1}}, overview.QuotesByStatus)
	assert.ElementsMatch(t, []StatusCount{{Status: "OVERDUE", Count: 1}, {Status: "PARTIALLY_PAID", Count: 1}}, overview.InvoicesByStatus)
	assert.Equal(t, 150.0, overview.TotalInvoiced)
	assert.Equal(t, 40.0, overview.TotalCollected)
	assert.Equal(t, 110.0, overview.Outstanding)
	assert.Equal(t, 50.0, overview.OverdueAmount)
	require.Len(t, overview.RecentInvoices, 2)
	assert.Equal(t, "ACME Corp", overview.RecentInvoices[0].ClientName)
}

func TestDashboardOverviewEmpty(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	sqlDB, err := db.DB()
	require.NoError(t, err)

	overview, err := NewDashboardService(sqlx.NewDb(sqlDB, "sqlite3")).Overview(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, overview.TotalClients)
	assert.Empty(t, overview.RecentInvoices)
	assert.Zero(t, overview.Outstanding)
}
