package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"invoicer/database"
	"invoicer/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d.DB
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: email, Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedClient(t *testing.T, db *gorm.DB, userID uint, email string) *models.Client {
	t.Helper()

	client := &models.Client{UserID: userID, Name: "ACME Corp", ContactName: "Wile E.", Email: email, Phone: "+33600000000"}
	require.NoError(t, db.Create(client).Error)
	return client
}

func seedInvoice(t *testing.T, db *gorm.DB, userID, clientID uint, total float64, due time.Time) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		UserID:    userID,
		ClientID:  clientID,
		Number:    "INV-TEST",
		Status:    models.InvoiceStatusUnpaid,
		IssueDate: time.Now().UTC(),
		DueDate:   due.UTC(),
		TotalHT:   total,
		TotalTTC:  total,
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

func seedQuote(t *testing.T, db *gorm.DB, userID, clientID uint) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		UserID:   userID,
		ClientID: clientID,
		Number:   "Q-TEST",
		Status:   models.QuoteStatusSent,
		Items: []models.QuoteItem{
			{LineItem: models.LineItem{Description: "Consulting", Quantity: 2, UnitPrice: 100, VATRate: 20}},
		},
	}
	quote.ComputeTotals()
	require.NoError(t, db.Create(quote).Error)
	return quote
}

func reloadInvoice(t *testing.T, db *gorm.DB, id uint) *models.Invoice {
	t.Helper()

	var invoice models.Invoice
	require.NoError(t, db.First(&invoice, id).Error)
	return &invoice
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSMS) SendSMS(to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return errors.New("sms gateway down")
}

// fixedClock часы для тестов, которые можно двигать вручную
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{now: t.UTC()}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
