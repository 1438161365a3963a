package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"invoicer/middleware"
	"invoicer/services"
	"invoicer/utils"

	"github.com/gorilla/mux"
)

var errUnauthorized = services.NewUnauthorized("unauthorized")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.LogError("failed to encode response: %v", err)
	}
}

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindInvalidState:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError отдает ошибку сервиса клиенту как {"error": message}.
// Детали неожиданных ошибок остаются в логе.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	utils.GetMetrics().RecordError(kind.String())

	msg := "internal server error"
	var appErr *services.AppError
	if kind != services.KindUnexpected && errors.As(err, &appErr) {
		msg = appErr.Message
	} else {
		utils.LogError("request %s %s %s failed: %v",
			middleware.RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
	}
	writeJSON(w, statusFor(kind), map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewInvalidArgument("invalid request body")
	}
	return nil
}

// decodeOptionalJSON допускает пустое тело запроса
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return services.NewInvalidArgument("invalid request body")
	}
	return nil
}

func parseID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, services.NewInvalidArgument("invalid " + name)
	}
	return uint(id), nil
}

// currentUser достает ID пользователя, установленный AuthMiddleware
func currentUser(r *http.Request) (uint, error) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		return 0, errUnauthorized
	}
	return userID, nil
}
