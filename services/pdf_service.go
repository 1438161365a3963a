package services

import (
	"context"
	"fmt"

	"invoicer/models"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// QuoteRenderer превращает котировку в PDF
type QuoteRenderer interface {
	RenderQuote(ctx context.Context, quote *models.Quote, company *models.CompanySettings) ([]byte, error)
}

// PDFService рендерит документы через maroto
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

func money(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func (p *PDFService) RenderQuote(ctx context.Context, quote *models.Quote, company *models.CompanySettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	currency := company.CurrencyCode()

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Quote", props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(6, quote.Number, props.Text{Size: 12, Align: align.Right, Top: 4}),
	)

	validUntil := "-"
	if quote.ValidUntil != nil {
		validUntil = quote.ValidUntil.Format("2006-01-02")
	}
	m.AddRow(12,
		col.New(6).Add(
			text.New("Date: "+quote.CreatedAt.Format("2006-01-02"), props.Text{Size: 9}),
			text.New("Valid until: "+validUntil, props.Text{Size: 9, Top: 4}),
		),
		col.New(6),
	)

	var client models.Client
	if quote.Client != nil {
		client = *quote.Client
	}
	m.AddRow(35,
		col.New(6).Add(
			text.New(company.LegalName, props.Text{Style: fontstyle.Bold}),
			text.New(company.Address, props.Text{Top: 5, Size: 9}),
			text.New(company.Email, props.Text{Top: 14, Size: 9}),
			text.New(vatLine(company.VATNumber), props.Text{Top: 19, Size: 9}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(client.Name, props.Text{Top: 5, Size: 9}),
			text.New(client.Address, props.Text{Top: 9, Size: 9}),
			text.New(client.Email, props.Text{Top: 19, Size: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "VAT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range quote.Items {
		m.AddRow(8,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%g", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.UnitPrice, currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, fmt.Sprintf("%g%%", item.VATRate), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.NetAmount(), currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	for _, row := range []struct {
		label  string
		amount float64
	}{
		{"Total excl. VAT", quote.TotalHT},
		{"VAT", quote.TotalVAT},
		{"Total", quote.TotalTTC},
	} {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, row.label, props.Text{Size: 9}),
			text.NewCol(2, money(row.amount, currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	if quote.Notes != "" {
		m.AddRow(20, text.NewCol(12, quote.Notes, props.Text{Size: 8, Top: 6}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to render quote %s: %w", quote.Number, err)
	}
	return doc.GetBytes(), nil
}

func vatLine(vat string) string {
	if vat == "" {
		return ""
	}
	return "VAT: " + vat
}
