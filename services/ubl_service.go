package services

import (
	"fmt"

	"invoicer/models"
	"invoicer/utils"

	"github.com/beevik/etree"
)

const (
	ublInvoiceNS = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	ublCACNS     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	ublCBCNS     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// UBLService выгружает счета в формате UBL 2.1
type UBLService struct{}

func NewUBLService() *UBLService {
	return &UBLService{}
}

func amountElement(parent *etree.Element, tag string, amount float64, currency string) {
	el := parent.CreateElement(tag)
	el.CreateAttr("currencyID", currency)
	el.SetText(fmt.Sprintf("%.2f", amount))
}

func partyElement(parent *etree.Element, tag, name, email, vat string) {
	party := parent.CreateElement(tag).CreateElement("cac:Party")
	party.CreateElement("cac:PartyName").CreateElement("cbc:Name").SetText(name)
	if vat != "" {
		scheme := party.CreateElement("cac:PartyTaxScheme")
		scheme.CreateElement("cbc:CompanyID").SetText(vat)
		scheme.CreateElement("cac:TaxScheme").CreateElement("cbc:ID").SetText("VAT")
	}
	if email != "" {
		party.CreateElement("cac:Contact").CreateElement("cbc:ElectronicMail").SetText(email)
	}
}

// RenderInvoice строит UBL-документ; PayableAmount равен остатку к оплате
func (s *UBLService) RenderInvoice(invoice *models.Invoice, company *models.CompanySettings) ([]byte, error) {
	currency := company.CurrencyCode()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", ublInvoiceNS)
	root.CreateAttr("xmlns:cac", ublCACNS)
	root.CreateAttr("xmlns:cbc", ublCBCNS)

	root.CreateElement("cbc:UBLVersionID").SetText("2.1")
	root.CreateElement("cbc:ID").SetText(invoice.Number)
	root.CreateElement("cbc:IssueDate").SetText(invoice.IssueDate.Format("2006-01-02"))
	root.CreateElement("cbc:DueDate").SetText(invoice.DueDate.Format("2006-01-02"))
	root.CreateElement("cbc:InvoiceTypeCode").SetText("380")
	if invoice.Notes != "" {
		root.CreateElement("cbc:Note").SetText(invoice.Notes)
	}
	root.CreateElement("cbc:DocumentCurrencyCode").SetText(currency)

	partyElement(root, "cac:AccountingSupplierParty", company.LegalName, company.Email, company.VATNumber)
	var client models.Client
	if invoice.Client != nil {
		client = *invoice.Client
	}
	partyElement(root, "cac:AccountingCustomerParty", client.Name, client.Email, client.VATNumber)

	if company.IBAN != "" {
		means := root.CreateElement("cac:PaymentMeans")
		means.CreateElement("cbc:PaymentMeansCode").SetText("58")
		means.CreateElement("cac:PayeeFinancialAccount").CreateElement("cbc:ID").SetText(company.IBAN)
	}

	taxTotal := root.CreateElement("cac:TaxTotal")
	amountElement(taxTotal, "cbc:TaxAmount", invoice.TotalVAT, currency)

	var paid int64
	for _, p := range invoice.Payments {
		paid += utils.ToCents(p.Amount)
	}
	payable := utils.ToCents(invoice.TotalTTC) - paid
	if payable < 0 {
		payable = 0
	}

	totals := root.CreateElement("cac:LegalMonetaryTotal")
	amountElement(totals, "cbc:LineExtensionAmount", invoice.TotalHT, currency)
	amountElement(totals, "cbc:TaxExclusiveAmount", invoice.TotalHT, currency)
	amountElement(totals, "cbc:TaxInclusiveAmount", invoice.TotalTTC, currency)
	amountElement(totals, "cbc:PrepaidAmount", utils.FromCents(paid), currency)
	amountElement(totals, "cbc:PayableAmount", utils.FromCents(payable), currency)

	for i, item := range invoice.Items {
		line := root.CreateElement("cac:InvoiceLine")
		line.CreateElement("cbc:ID").SetText(fmt.Sprintf("%d", i+1))
		qty := line.CreateElement("cbc:InvoicedQuantity")
		qty.CreateAttr("unitCode", "C62")
		qty.SetText(fmt.Sprintf("%g", item.Quantity))
		amountElement(line, "cbc:LineExtensionAmount", item.NetAmount(), currency)

		it := line.CreateElement("cac:Item")
		it.CreateElement("cbc:Name").SetText(item.Description)
		category := it.CreateElement("cac:ClassifiedTaxCategory")
		category.CreateElement("cbc:Percent").SetText(fmt.Sprintf("%g", item.VATRate))
		category.CreateElement("cac:TaxScheme").CreateElement("cbc:ID").SetText("VAT")

		amountElement(line.CreateElement("cac:Price"), "cbc:PriceAmount", item.UnitPrice, currency)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write invoice %s: %w", invoice.Number, err)
	}
	return out, nil
}
