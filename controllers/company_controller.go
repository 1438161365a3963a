package controllers

import (
	"net/http"

	"invoicer/services"
)

type CompanyController struct {
	company *services.CompanyService
}

func NewCompanyController(company *services.CompanyService) *CompanyController {
	return &CompanyController{company: company}
}

func (c *CompanyController) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	settings, err := c.company.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (c *CompanyController) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var dto services.CompanyDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, r, err)
		return
	}

	settings, err := c.company.Update(r.Context(), userID, dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
