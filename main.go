package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"invoicer/config"
	"invoicer/database"
	"invoicer/services"
	"invoicer/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// application связывает сервисы, общие для HTTP-слоя и планировщика
type application struct {
	cfg *config.Config
	db  *database.Database

	tokens     *services.TokenService
	users      *services.UserService
	clients    *services.ClientService
	company    *services.CompanyService
	quotes     *services.QuoteService
	invoices   *services.InvoiceService
	payments   *services.PaymentService
	signatures *services.SignatureService
	danger     *services.DangerService
	dashboard  *services.DashboardService
	pdf        *services.PDFService
	ubl        *services.UBLService
	scheduler  *services.InvoiceSchedulerService
	limiter    *utils.RateLimiter
}

func newApplication(cfg *config.Config, db *database.Database, mailer services.Mailer, sms services.SMSSender, store services.DangerOTPStore) (*application, error) {
	secret, err := services.ResolveSigningSecret(cfg.JWT.SecretKey)
	if err != nil {
		return nil, err
	}
	reports, err := db.SQLX()
	if err != nil {
		return nil, fmt.Errorf("failed to open reporting connection: %w", err)
	}

	payments := services.NewPaymentService(db.DB)
	return &application{
		cfg:        cfg,
		db:         db,
		tokens:     services.NewTokenService(secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		users:      services.NewUserService(db.DB),
		clients:    services.NewClientService(db.DB),
		company:    services.NewCompanyService(db.DB),
		quotes:     services.NewQuoteService(db.DB),
		invoices:   services.NewInvoiceService(db.DB, payments),
		payments:   payments,
		signatures: services.NewSignatureService(db.DB, mailer, sms),
		danger:     services.NewDangerService(db.DB, store, mailer),
		dashboard:  services.NewDashboardService(reports),
		pdf:        services.NewPDFService(),
		ubl:        services.NewUBLService(),
		scheduler:  services.NewInvoiceSchedulerService(db.DB, payments, cfg.Scheduler.OverdueCron),
		limiter:    utils.NewRateLimiter(cfg.Portal.RateLimit, cfg.Portal.RateWindow),
	}, nil
}

// newDangerStore выбирает Redis, если он настроен, иначе память процесса
func newDangerStore(ctx context.Context, cfg *config.Config) (services.DangerOTPStore, error) {
	if cfg.Redis.Addr == "" {
		return services.NewMemoryDangerStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return services.NewRedisDangerStore(client), nil
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := newDangerStore(ctx, cfg)
	if err != nil {
		return err
	}

	// SMS необязательны: без настроек Twilio коды уходят только на почту
	var sms services.SMSSender
	if s := services.NewSMSService(cfg); s != nil {
		sms = s
	}

	app, err := newApplication(cfg, db, services.NewEmailService(cfg), sms, store)
	if err != nil {
		return err
	}

	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start overdue scheduler: %w", err)
	}
	defer func() { <-app.scheduler.Stop().Done() }()
	utils.LogInfo("overdue scheduler started (%s)", cfg.Scheduler.OverdueCron)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: app.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
