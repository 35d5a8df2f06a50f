package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/accessrequest"
	accessRequestPostgres "github.com/frahmantamala/staff-management/internal/accessrequest/postgres"
	"github.com/frahmantamala/staff-management/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/staff-management/internal/attachment/postgres"
	"github.com/frahmantamala/staff-management/internal/auth"
	authPostgres "github.com/frahmantamala/staff-management/internal/auth/postgres"
	"github.com/frahmantamala/staff-management/internal/blob"
	"github.com/frahmantamala/staff-management/internal/carpass"
	carPassPostgres "github.com/frahmantamala/staff-management/internal/carpass/postgres"
	"github.com/frahmantamala/staff-management/internal/cookie"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/employee"
	employeePostgres "github.com/frahmantamala/staff-management/internal/employee/postgres"
	"github.com/frahmantamala/staff-management/internal/idrequest"
	idRequestPostgres "github.com/frahmantamala/staff-management/internal/idrequest/postgres"
	"github.com/frahmantamala/staff-management/internal/incident"
	incidentPostgres "github.com/frahmantamala/staff-management/internal/incident/postgres"
	"github.com/frahmantamala/staff-management/internal/mail"
	"github.com/frahmantamala/staff-management/internal/ratelimit"
	"github.com/frahmantamala/staff-management/internal/serial"
	"github.com/frahmantamala/staff-management/internal/settings"
	settingsPostgres "github.com/frahmantamala/staff-management/internal/settings/postgres"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/transport/rest"
	"github.com/frahmantamala/staff-management/internal/transport/swagger"
	"github.com/frahmantamala/staff-management/internal/user"
	userPostgres "github.com/frahmantamala/staff-management/internal/user/postgres"
	"github.com/frahmantamala/staff-management/internal/workflow"
	"github.com/frahmantamala/staff-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the staff dashboard`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Gate     *auth.Gate
	Cookies  *cookie.Codec
	Bus      *events.EventBus
	Logger   *slog.Logger

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("Close: failed to release resource", "error", err)
		}
	}
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	rest.RegisterAllRoutes(deps.Router, deps.Handlers, deps.Gate, deps.Cookies, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		// let rejection mails already handed to the bus finish
		deps.Bus.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		deps.Logger.Error("Server stopped with error", "error", err)
		deps.Close()
		os.Exit(1)
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps := &Dependencies{
		Config:  config,
		DB:      db,
		Router:  chi.NewRouter(),
		Logger:  log,
		closers: []func() error{db.Close},
	}

	gdb, err := initGorm(db.DB, config.IsProduction())
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	deps.Gorm = gdb

	deps.Cookies, err = cookie.NewCodec(config.Security.SessionSecrets, config.IsProduction())
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to build cookie codec: %w", err)
	}

	store, err := blob.NewOSStore(config.Storage.Root)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	limiter, closeLimiter := ratelimit.New(config.Redis.Addr, config.Redis.Password, config.Redis.DB, config.RateLimit.Window, log)
	deps.closers = append(deps.closers, closeLimiter)

	sender, closeSender := newMailSender(config, log)
	deps.closers = append(deps.closers, closeSender)

	deps.Bus = events.NewEventBus(log)
	mail.RegisterSubscribers(deps.Bus, sender, log)

	deps.Gate = auth.NewGate(authPostgres.NewGateRepository(gdb), deps.Cookies, log)
	base := transport.NewBaseHandler(log, deps.Cookies)
	serials := serial.NewGenerator(db)
	reconciler := attachment.NewReconciler(store, config.Storage.Container, config.Storage.MaxFileSize, log)
	gate := workflow.Gatekeeper(deps.Gate)

	authService := auth.NewService(authPostgres.NewRepository(gdb), limiter, deps.Bus, auth.ServiceConfig{
		BCryptCost:  config.Security.BCryptCost,
		LoginLimit:  config.RateLimit.LoginLimit,
		VerifyLimit: config.RateLimit.VerifyLimit,
	}, log)
	settingsService := settings.NewService(settingsPostgres.NewSettingsRepository(gdb), log)

	openAPI, err := swagger.Load(context.Background(), config.Server.OpenAPIPath)
	if err != nil {
		// the dashboard works without the API browser
		log.Warn("OpenAPI document unavailable", "path", config.Server.OpenAPIPath, "error", err)
	}

	deps.Handlers = rest.Handlers{
		Health: rest.NewHealthHandler(map[string]rest.Check{
			"database": db.PingContext,
		}),
		Auth: auth.NewHandler(base, authService, deps.Gate, config.Security.SessionDuration),
		User: user.NewHandler(base, user.NewService(userPostgres.NewUserRepository(gdb), log)),
		Employee: employee.NewHandler(base,
			employee.NewService(employeePostgres.NewEmployeeRepository(gdb), log), settingsService),
		Incident: incident.NewHandler(base,
			incident.NewService(incidentPostgres.NewIncidentRepository(gdb), serials, reconciler, log), deps.Gate, settingsService),
		CarPass: carpass.NewHandler(base,
			carpass.NewService(carPassPostgres.NewCarPassRepository(gdb), serials, reconciler, deps.Bus, log), gate),
		IDRequest: idrequest.NewHandler(base,
			idrequest.NewService(idRequestPostgres.NewIDRequestRepository(gdb), serials, reconciler, deps.Bus, log), gate),
		AccessRequest: accessrequest.NewHandler(base,
			accessrequest.NewService(accessRequestPostgres.NewAccessRequestRepository(gdb), serials, deps.Bus, log), gate, settingsService),
		Settings:   settings.NewHandler(base, settingsService),
		Attachment: attachment.NewHandler(base, attachment.NewService(attachmentPostgres.NewAttachmentRepository(gdb), reconciler, deps.Gate, log)),
		OpenAPI:    openAPI,
	}

	return deps, nil
}

// newMailSender queues on Kafka when configured, otherwise sends over SMTP.
func newMailSender(cfg *internal.Config, log *slog.Logger) (mail.Sender, func() error) {
	if cfg.Mail.Transport == "kafka" {
		s := mail.NewKafkaSender(log, cfg.Kafka.Brokers, cfg.Kafka.MailTopic)
		return s, func() error { s.Close(); return nil }
	}
	return newSMTPSender(cfg, log), func() error { return nil }
}

func newSMTPSender(cfg *internal.Config, log *slog.Logger) *mail.SMTPSender {
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Login:    cfg.Mail.Login,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
	}, log)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool so both layers see one set of connections.
func initGorm(conn *sql.DB, production bool) (*gorm.DB, error) {
	level := gormLogger.Info
	if production {
		level = gormLogger.Warn
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
}
