package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"invoicer/models"
	"invoicer/utils"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type Claims struct {
	UserID uint      `json:"user_id"`
	Email  string    `json:"email"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // секунды жизни access-токена
}

// TokenService выпускает и проверяет HS256-токены доступа и обновления
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// ResolveSigningSecret возвращает настроенный секрет, а если он пуст, секрет, выведенный из параметров хоста
func ResolveSigningSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	secret, err := utils.HostSecret()
	if err != nil {
		return "", fmt.Errorf("no JWT secret configured and host secret unavailable: %w", err)
	}
	utils.LogWarn("JWT_SECRET_KEY is not set, using a host-derived secret; tokens will not survive a host change")
	return secret, nil
}

// IssuePair выпускает access- и refresh-токены для пользователя
func (s *TokenService) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := s.issue(user.ID, user.Email, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(user.ID, user.Email, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) issue(userID uint, email string, typ TokenType, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", NewUnexpected("failed to sign token", err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Type != want {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAccess проверяет access-токен
func (s *TokenService) ParseAccess(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TokenTypeAccess)
}

// Refresh выпускает новый access-токен по действующему refresh-токену
func (s *TokenService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, NewUnauthorized("invalid or expired refresh token")
	}
	access, err := s.issue(claims.UserID, claims.Email, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
