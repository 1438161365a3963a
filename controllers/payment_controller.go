package controllers

import (
	"net/http"

	"invoicer/services"
)

// PaymentController обрабатывает запросы реестра оплат
type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// Create регистрирует оплату по счету
func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var dto services.CreatePaymentDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}
	dto.UserID = userID

	payment, err := c.payments.Create(r.Context(), dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (c *PaymentController) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	paymentID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var dto services.UpdatePaymentDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}
	dto.UserID = userID

	payment, err := c.payments.Update(r.Context(), paymentID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (c *PaymentController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	paymentID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.payments.Delete(r.Context(), paymentID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByInvoice возвращает оплаты счета, новые первыми
func (c *PaymentController) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invoiceID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	payments, err := c.payments.ListByInvoice(r.Context(), invoiceID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (c *PaymentController) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invoiceID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := c.payments.Summary(r.Context(), invoiceID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// MarkFullyPaid добавляет оплату на остаток суммы
func (c *PaymentController) MarkFullyPaid(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invoiceID, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := c.payments.MarkFullyPaid(r.Context(), invoiceID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}
