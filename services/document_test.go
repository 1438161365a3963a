package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/models"
)

func sampleCompany() *models.CompanySettings {
	return &models.CompanySettings{LegalName: "Doe SARL", Email: "billing@doe.test", VATNumber: "FR123", IBAN: "FR7630006000011234567890189"}
}

func TestRenderQuotePDF(t *testing.T) {
	valid := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	quote := &models.Quote{
		Number:     "Q-2026-0001",
		ValidUntil: &valid,
		Client:     &models.Client{Name: "ACME Corp", Email: "client@example.com"},
		Items: []models.QuoteItem{
			{LineItem: models.LineItem{Description: "Consulting", Quantity: 2, UnitPrice: 100, VATRate: 20}},
		},
	}
	quote.ComputeTotals()

	out, err := NewPDFService().RenderQuote(context.Background(), quote, sampleCompany())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoiceUBL(t *testing.T) {
	invoice := &models.Invoice{
		Number:    "INV-2026-0007",
		IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Client:    &models.Client{Name: "ACME Corp"},
		Items: []models.InvoiceItem{
			{LineItem: models.LineItem{Description: "Consulting", Quantity: 2, UnitPrice: 100, VATRate: 20}},
		},
		Payments: []models.Payment{{Amount: 40}},
	}
	invoice.ComputeTotals()

	out, err := NewUBLService().RenderInvoice(invoice, sampleCompany())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Invoice", root.Tag)
	assert.Equal(t, "INV-2026-0007", root.FindElement("cbc:ID").Text())
	assert.Equal(t, "2026-03-31", root.FindElement("cbc:DueDate").Text())
	assert.Equal(t, "240.00", root.FindElement("cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount").Text())
	assert.Equal(t, "200.00", root.FindElement("cac:LegalMonetaryTotal/cbc:PayableAmount").Text())
	assert.Equal(t, "EUR", root.FindElement("cac:LegalMonetaryTotal/cbc:PayableAmount").SelectAttrValue("currencyID", ""))
	assert.Len(t, root.FindElements("cac:InvoiceLine"), 1)
	assert.Equal(t, "FR7630006000011234567890189", root.FindElement("cac:PaymentMeans/cac:PayeeFinancialAccount/cbc:ID").Text())
}
