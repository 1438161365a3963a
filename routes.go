package main

import (
	"net/http"

	"invoicer/controllers"
	"invoicer/middleware"
	"invoicer/utils"

	"github.com/gorilla/mux"
)

func (a *application) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)

	// Публичный портал подписания (gin, со своим логированием и лимитом запросов)
	portal := controllers.NewSignaturePortal(a.signatures, a.limiter, a.cfg.Portal.RateLimit, a.cfg.CORSOrigin)
	router.Handle("/api/signatures/{id:[0-9]+}", portal).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/api/signatures/{id:[0-9]+}/otp", portal).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/api/signatures/{id:[0-9]+}/sign", portal).Methods(http.MethodPost, http.MethodOptions)

	authController := controllers.NewAuthController(a.users, a.tokens)
	healthController := controllers.NewHealthController(a.db)

	public := router.NewRoute().Subrouter()
	public.Use(middleware.LoggingMiddleware)
	public.HandleFunc("/health", healthController.Health).Methods(http.MethodGet)
	public.Handle("/metrics", utils.GetMetrics().Handler()).Methods(http.MethodGet)
	public.HandleFunc("/api/auth/signup", authController.SignUp).Methods(http.MethodPost)
	public.HandleFunc("/api/auth/login", authController.Login).Methods(http.MethodPost)
	public.HandleFunc("/api/auth/refresh", authController.Refresh).Methods(http.MethodPost)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.LoggingMiddleware)
	protected.Use(middleware.AuthMiddleware(a.tokens))

	protected.HandleFunc("/auth/me", authController.Me).Methods(http.MethodGet)
	protected.HandleFunc("/auth/me", authController.UpdateMe).Methods(http.MethodPatch)
	protected.HandleFunc("/auth/password", authController.ChangePassword).Methods(http.MethodPatch)

	// Реестр оплат
	paymentController := controllers.NewPaymentController(a.payments)
	protected.HandleFunc("/payments", paymentController.Create).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{id:[0-9]+}", paymentController.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/payments/{id:[0-9]+}", paymentController.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/payments/invoice/{id:[0-9]+}", paymentController.ListByInvoice).Methods(http.MethodGet)
	protected.HandleFunc("/payments/invoice/{id:[0-9]+}/summary", paymentController.Summary).Methods(http.MethodGet)
	protected.HandleFunc("/payments/invoice/{id:[0-9]+}/mark-fully-paid", paymentController.MarkFullyPaid).Methods(http.MethodPost)

	signatureController := controllers.NewSignatureController(a.signatures)
	protected.HandleFunc("/signatures", signatureController.Create).Methods(http.MethodPost)

	dangerController := controllers.NewDangerController(a.danger, a.users)
	protected.HandleFunc("/danger/otp", dangerController.RequestOTP).Methods(http.MethodPost)
	protected.HandleFunc("/danger/reset/app", dangerController.ResetApp).Methods(http.MethodPost)
	protected.HandleFunc("/danger/reset/all", dangerController.ResetAll).Methods(http.MethodPost)

	dashboardController := controllers.NewDashboardController(a.dashboard)
	protected.HandleFunc("/dashboard", dashboardController.Overview).Methods(http.MethodGet)

	clientController := controllers.NewClientController(a.clients)
	protected.HandleFunc("/clients", clientController.List).Methods(http.MethodGet)
	protected.HandleFunc("/clients", clientController.Create).Methods(http.MethodPost)
	protected.HandleFunc("/clients/{id:[0-9]+}", clientController.Get).Methods(http.MethodGet)
	protected.HandleFunc("/clients/{id:[0-9]+}", clientController.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/clients/{id:[0-9]+}", clientController.Delete).Methods(http.MethodDelete)

	quoteController := controllers.NewQuoteController(a.quotes, a.company, a.pdf)
	protected.HandleFunc("/quotes", quoteController.List).Methods(http.MethodGet)
	protected.HandleFunc("/quotes", quoteController.Create).Methods(http.MethodPost)
	protected.HandleFunc("/quotes/{id:[0-9]+}", quoteController.Get).Methods(http.MethodGet)
	protected.HandleFunc("/quotes/{id:[0-9]+}/convert", quoteController.Convert).Methods(http.MethodPost)
	protected.HandleFunc("/quotes/{id:[0-9]+}/pdf", quoteController.PDF).Methods(http.MethodGet)

	invoiceController := controllers.NewInvoiceController(a.invoices, a.company, a.ubl)
	protected.HandleFunc("/invoices", invoiceController.List).Methods(http.MethodGet)
	protected.HandleFunc("/invoices", invoiceController.Create).Methods(http.MethodPost)
	protected.HandleFunc("/invoices/{id:[0-9]+}", invoiceController.Get).Methods(http.MethodGet)
	protected.HandleFunc("/invoices/{id:[0-9]+}/send", invoiceController.Send).Methods(http.MethodPost)
	protected.HandleFunc("/invoices/{id:[0-9]+}/xml", invoiceController.XML).Methods(http.MethodGet)

	companyController := controllers.NewCompanyController(a.company)
	protected.HandleFunc("/company", companyController.Get).Methods(http.MethodGet)
	protected.HandleFunc("/company", companyController.Update).Methods(http.MethodPut)

	return router
}
