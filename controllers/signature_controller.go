package controllers

import (
	"net/http"

	"invoicer/services"
)

type SignatureController struct {
	signatures *services.SignatureService
}

type CreateSignatureRequest struct {
	QuoteID uint `json:"quoteId"`
}

func NewSignatureController(signatures *services.SignatureService) *SignatureController {
	return &SignatureController{signatures: signatures}
}

// Create открывает сессию подписания для котировки текущего пользователя
func (c *SignatureController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req CreateSignatureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.QuoteID == 0 {
		writeError(w, r, services.NewInvalidArgument("quoteId is required"))
		return
	}

	session, err := c.signatures.CreateSignature(r.Context(), req.QuoteID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}
