package controllers

import (
	"net/http"

	"invoicer/models"
	"invoicer/services"
)

type AuthController struct {
	users  *services.UserService
	tokens *services.TokenService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	Tokens *services.TokenPair `json:"tokens"`
	User   *models.User        `json:"user"`
}

func NewAuthController(users *services.UserService, tokens *services.TokenService) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

// SignUp регистрирует пользователя и сразу выдает пару токенов
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := c.users.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondWithTokens(w, r, http.StatusCreated, user)
}

// Login проверяет email и пароль
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := c.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.respondWithTokens(w, r, http.StatusOK, user)
}

func (c *AuthController) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	pair, err := c.tokens.IssuePair(user)
	if err != nil {
		writeError(w, r, services.NewUnexpected("failed to generate token", err))
		return
	}
	writeJSON(w, status, AuthResponse{Tokens: pair, User: user})
}

// Refresh выдает новый access-токен по refresh-токену
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, services.NewInvalidArgument("refreshToken is required"))
		return
	}

	pair, err := c.tokens.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, user)
}

func (c *AuthController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := c.users.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword требует текущий пароль
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.users.ChangePassword(r.Context(), userID, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
