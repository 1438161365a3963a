package controllers

import (
	"fmt"
	"net/http"

	"invoicer/services"
)

type InvoiceController struct {
	invoices *services.InvoiceService
	company  *services.CompanyService
	ubl      *services.UBLService
}

func NewInvoiceController(invoices *services.InvoiceService, company *services.CompanyService, ubl *services.UBLService) *InvoiceController {
	return &InvoiceController{invoices: invoices, company: company, ubl: ubl}
}

func (c *InvoiceController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var dto services.CreateInvoiceDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := c.invoices.Create(r.Context(), userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

// List поддерживает фильтр ?status=
func (c *InvoiceController) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoices, err := c.invoices.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (c *InvoiceController) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := c.invoices.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (c *InvoiceController) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := c.invoices.MarkSent(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

// XML отдает счет в формате UBL 2.1
func (c *InvoiceController) XML(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := c.invoices.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	company, err := c.company.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := c.ubl.RenderInvoice(invoice, company)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.Number+".xml"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
