package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/config"
	"invoicer/database"
	"invoicer/services"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *captureMailer) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, body)
	return nil
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := sixDigits.FindString(m.sent[len(m.sent)-1])
	require.NotEmpty(t, code)
	return code
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.AccessTTL = time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.Scheduler.OverdueCron = "5 0 * * *"
	cfg.Portal.RateLimit = 100
	cfg.Portal.RateWindow = time.Minute
	cfg.CORSOrigin = "*"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (http.Handler, *captureMailer) {
	t.Helper()

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mailer := &captureMailer{}
	app, err := newApplication(cfg, db, mailer, nil, services.NewMemoryDangerStore())
	require.NoError(t, err)
	return app.routes(), mailer
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type authResponse struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
	User struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func signUp(t *testing.T, h http.Handler, email string) authResponse {
	t.Helper()

	rec := call(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     email,
		"password":  "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	decode(t, rec, &resp)
	return resp
}

func createClient(t *testing.T, h http.Handler, token string) uint {
	t.Helper()

	rec := call(t, h, http.MethodPost, "/api/clients", token, map[string]string{
		"name":  "ACME Corp",
		"email": "billing@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client struct {
		ID uint `json:"id"`
	}
	decode(t, rec, &client)
	return client.ID
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	rec := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invoicer_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	auth := signUp(t, h, "jane@example.com")

	rec := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "JANE@example.com", "password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/auth/me", auth.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = call(t, h, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": auth.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decode(t, rec, &pair)
	assert.Equal(t, auth.Tokens.RefreshToken, pair.RefreshToken)

	rec = call(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": auth.Tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPatch, "/api/auth/password", auth.Tokens.AccessToken, map[string]string{
		"currentPassword": "wrong", "newPassword": "N3w!password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpiredAccessToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = -time.Second
	h, _ := newTestServer(t, cfg)
	auth := signUp(t, h, "jane@example.com")

	rec := call(t, h, http.MethodGet, "/api/auth/me", auth.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "expired_token", rec.Header().Get("WWW-Authenticate"))
}

func TestPaymentLedgerOverHTTP(t *testing.T) {
	h, _ := newTestServer(t, testConfig())
	token := signUp(t, h, "jane@example.com").Tokens.AccessToken
	clientID := createClient(t, h, token)

	rec := call(t, h, http.MethodPost, "/api/invoices", token, map[string]interface{}{
		"clientId": clientID,
		"dueDate":  time.Now().UTC().Add(72 * time.Hour),
		"items": []map[string]interface{}{
			{"description": "Design", "quantity": 1, "unitPrice": 100, "vatRate": 0},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var invoice struct {
		ID       uint    `json:"id"`
		Status   string  `json:"status"`
		TotalTTC float64 `json:"totalTTC"`
	}
	decode(t, rec, &invoice)
	assert.Equal(t, 100.0, invoice.TotalTTC)

	rec = call(t, h, http.MethodPost, "/api/payments", token, map[string]interface{}{"invoiceId": invoice.ID, "amount": 60})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/invoices/%d", invoice.ID), token, nil)
	decode(t, rec, &invoice)
	assert.Equal(t, "PARTIALLY_PAID", invoice.Status)

	rec = call(t, h, http.MethodPost, fmt.Sprintf("/api/payments/invoice/%d/mark-fully-paid", invoice.ID), token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment struct {
		Amount float64 `json:"amount"`
		Method string  `json:"method"`
	}
	decode(t, rec, &payment)
	assert.Equal(t, 40.0, payment.Amount)
	assert.Equal(t, "Manual Completion", payment.Method)

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/payments/invoice/%d/summary", invoice.ID), token, nil)
	var summary services.PaymentSummary
	decode(t, rec, &summary)
	assert.True(t, summary.IsFullyPaid)
	assert.Equal(t, 2, summary.PaymentCount)
	assert.Equal(t, 100.0, summary.PaymentProgress)

	rec = call(t, h, http.MethodPost, "/api/payments", token, map[string]interface{}{"invoiceId": invoice.ID, "amount": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	other := signUp(t, h, "intruder@example.com").Tokens.AccessToken
	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/payments/invoice/%d", invoice.ID), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalCollected":100`)
}

func TestQuoteSigningPortal(t *testing.T) {
	h, mailer := newTestServer(t, testConfig())
	token := signUp(t, h, "jane@example.com").Tokens.AccessToken
	clientID := createClient(t, h, token)

	rec := call(t, h, http.MethodPost, "/api/quotes", token, map[string]interface{}{
		"clientId": clientID,
		"items": []map[string]interface{}{
			{"description": "Audit", "quantity": 2, "unitPrice": 500, "vatRate": 20},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quote struct {
		ID uint `json:"id"`
	}
	decode(t, rec, &quote)

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/quotes/%d/pdf", quote.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = call(t, h, http.MethodPost, "/api/signatures", token, map[string]uint{"quoteId": quote.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		ID uint `json:"id"`
	}
	decode(t, rec, &session)

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/signatures/%d", session.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, fmt.Sprintf("/api/signatures/%d/otp", session.ID), "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "otpCode")
	var otp struct {
		ID uint `json:"id"`
	}
	decode(t, rec, &otp)
	code := mailer.lastCode(t)

	signPath := fmt.Sprintf("/api/signatures/%d/sign", otp.ID)
	rec = call(t, h, http.MethodPost, signPath, "", map[string]string{"otpCode": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, signPath, "", map[string]string{"otpCode": code})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid or expired OTP"}`, rec.Body.String())

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/quotes/%d", quote.ID), token, nil)
	assert.Contains(t, rec.Body.String(), `"status":"SIGNED"`)

	rec = call(t, h, http.MethodPost, fmt.Sprintf("/api/quotes/%d/convert", quote.ID), token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var invoice struct {
		ID       uint    `json:"id"`
		TotalTTC float64 `json:"totalTTC"`
	}
	decode(t, rec, &invoice)
	assert.Equal(t, 1200.0, invoice.TotalTTC)

	rec = call(t, h, http.MethodGet, fmt.Sprintf("/api/invoices/%d/xml", invoice.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<cbc:UBLVersionID>2.1</cbc:UBLVersionID>")
}

func TestPortalRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Portal.RateLimit = 2
	h, _ := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := call(t, h, http.MethodGet, "/api/signatures/999", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := call(t, h, http.MethodGet, "/api/signatures/999", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
