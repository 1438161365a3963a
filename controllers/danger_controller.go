package controllers

import (
	"net/http"

	"invoicer/services"
)

// DangerController операции опасной зоны, каждая подтверждается кодом из письма
type DangerController struct {
	danger *services.DangerService
	users  *services.UserService
}

func NewDangerController(danger *services.DangerService, users *services.UserService) *DangerController {
	return &DangerController{danger: danger, users: users}
}

func (c *DangerController) RequestOTP(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := c.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.danger.RequestOTP(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

// ResetApp удаляет все бизнес-данные, пользователи остаются
func (c *DangerController) ResetApp(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.danger.ResetApp(r.Context(), userID, r.URL.Query().Get("otp")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "application data reset"})
}

func (c *DangerController) ResetAll(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.danger.ResetAll(r.Context(), userID, r.URL.Query().Get("otp")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "danger zone reset"})
}
