package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/veilpay/veilpay/internal/account"
	"github.com/veilpay/veilpay/internal/auth"
	"github.com/veilpay/veilpay/internal/config"
	"github.com/veilpay/veilpay/internal/confidential"
	"github.com/veilpay/veilpay/internal/entropy"
	"github.com/veilpay/veilpay/internal/events"
	"github.com/veilpay/veilpay/internal/ledger"
	"github.com/veilpay/veilpay/internal/metrics"
	"github.com/veilpay/veilpay/internal/middleware"
	"github.com/veilpay/veilpay/internal/token"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Storage backends.
	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}
	var accountRepo account.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
	}

	// External collaborators. Both are simulated in-process; real deployments
	// would substitute clients for the production oracle and coprocessor here.
	source := entropy.NewSimulatedSource(d.Cfg.EntropyFee)
	engine := confidential.NewSimulatedEngine()

	var emitter events.Emitter = events.NewLoggerEmitter(d.Logger)
	if d.Cache != nil {
		emitter = events.Multi{emitter, events.NewRedisEmitter(d.Cache, "")}
	}

	m := metrics.New()

	tokenSvc, err := token.New(token.Params{
		Name:    d.Cfg.TokenName,
		Symbol:  d.Cfg.TokenSymbol,
		Oracle:  d.Cfg.OracleAddress,
		Ledger:  ledgerBackend,
		Engine:  engine,
		Source:  source,
		Emitter: emitter,
		Metrics: m,
		Mint:    token.FixedMint(d.Cfg.MintAmount),
	})
	if err != nil {
		return err
	}

	accountSvc := account.NewService(accountRepo)
	authSvc := auth.NewService(d.Cfg, accountRepo)
	authHandler := auth.NewHandler(accountSvc, authSvc)
	tokenHandler := token.NewHandler(tokenSvc)

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	authmw := middleware.BearerAuth(d.Cfg, accountRepo)

	// Public routes
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, 5), authmw)

	// Protected routes
	protected := api.Group("", authmw)
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Use(middleware.Audit(d.Logger))
	RegisterTokenRoutes(protected, tokenHandler, middleware.WrapRateLimit(d.Cache, 30))

	// The simulated oracle needs an external nudge to fulfill requests; only
	// exposed in dev so the full wrap handshake can be exercised locally.
	if d.Cfg.IsDev() {
		RegisterDevEntropyRoutes(api, source)
	}

	return nil
}
