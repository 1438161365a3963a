package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"invoicer/middleware"
	"invoicer/models"
	"invoicer/services"
	"invoicer/utils"

	"github.com/gin-gonic/gin"
)

// SignatureView то, что видит клиент на странице подписания
type SignatureView struct {
	ID        uint          `json:"id"`
	QuoteID   uint          `json:"quoteId"`
	OTPUsed   bool          `json:"otpUsed"`
	ExpiresAt time.Time     `json:"expiresAt"`
	SignedAt  *time.Time    `json:"signedAt,omitempty"`
	Quote     *models.Quote `json:"quote,omitempty"`
}

type SignRequest struct {
	OTPCode string `json:"otpCode" binding:"required"`
}

type signaturePortal struct {
	signatures *services.SignatureService
}

// NewSignaturePortal собирает публичный портал подписания.
// Все маршруты портала ограничены по частоте на IP клиента.
func NewSignaturePortal(signatures *services.SignatureService, limiter *utils.RateLimiter, limit int, corsOrigin string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger(), middleware.CORSMiddleware(corsOrigin), middleware.RateLimit(limiter, limit))

	p := &signaturePortal{signatures: signatures}
	api := r.Group("/api/signatures")
	{
		api.GET("/:id", p.get)
		api.POST("/:id/otp", p.requestOTP)
		api.POST("/:id/sign", p.sign)
	}
	return r
}

func portalError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	utils.GetMetrics().RecordError(kind.String())

	var appErr *services.AppError
	if kind == services.KindUnexpected || !errors.As(err, &appErr) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(statusFor(kind), gin.H{"error": appErr.Message})
}

func signatureID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.NewInvalidArgument("invalid id")
	}
	return uint(id), nil
}

func (p *signaturePortal) get(c *gin.Context) {
	id, err := signatureID(c)
	if err != nil {
		portalError(c, err)
		return
	}

	sig, err := p.signatures.GetSignature(c.Request.Context(), id)
	if err != nil {
		portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, SignatureView{
		ID:        sig.ID,
		QuoteID:   sig.QuoteID,
		OTPUsed:   sig.OTPUsed,
		ExpiresAt: sig.ExpiresAt,
		SignedAt:  sig.SignedAt,
		Quote:     sig.Quote,
	})
}

// requestOTP отправляет код клиенту. В ответе только ID строки с кодом.
func (p *signaturePortal) requestOTP(c *gin.Context) {
	id, err := signatureID(c)
	if err != nil {
		portalError(c, err)
		return
	}

	otp, err := p.signatures.GenerateOTPCode(c.Request.Context(), id)
	if err != nil {
		portalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":        otp.ID,
		"quoteId":   otp.QuoteID,
		"expiresAt": otp.ExpiresAt,
	})
}

func (p *signaturePortal) sign(c *gin.Context) {
	id, err := signatureID(c)
	if err != nil {
		portalError(c, err)
		return
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		portalError(c, services.NewInvalidArgument("otpCode is required"))
		return
	}

	sig, err := p.signatures.SignQuote(c.Request.Context(), id, req.OTPCode)
	if err != nil {
		portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, SignatureView{
		ID:        sig.ID,
		QuoteID:   sig.QuoteID,
		OTPUsed:   sig.OTPUsed,
		ExpiresAt: sig.ExpiresAt,
		SignedAt:  sig.SignedAt,
	})
}
