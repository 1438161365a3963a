package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"invoicer/services"
)

type QuoteController struct {
	quotes   *services.QuoteService
	company  *services.CompanyService
	renderer services.QuoteRenderer
}

func NewQuoteController(quotes *services.QuoteService, company *services.CompanyService, renderer services.QuoteRenderer) *QuoteController {
	return &QuoteController{quotes: quotes, company: company, renderer: renderer}
}

func (c *QuoteController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var dto services.CreateQuoteDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := c.quotes.Create(r.Context(), userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

func (c *QuoteController) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quotes, err := c.quotes.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (c *QuoteController) Get(w http.ResponseWriter, r *http.Request) {
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

	quote, err := c.quotes.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Convert выставляет счет по котировке. Тело запроса необязательно.
func (c *QuoteController) Convert(w http.ResponseWriter, r *http.Request) {
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
	var dto services.ConvertQuoteDTO
	if err := decodeOptionalJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}

	invoice, err := c.quotes.Convert(r.Context(), id, userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

// PDF отдает котировку файлом
func (c *QuoteController) PDF(w http.ResponseWriter, r *http.Request) {
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

	quote, err := c.quotes.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	company, err := c.company.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdf, err := c.renderer.RenderQuote(r.Context(), quote, company)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", quote.Number+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
