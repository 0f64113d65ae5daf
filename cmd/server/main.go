package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/iliyamo/sales-backoffice/internal/audit"
	"github.com/iliyamo/sales-backoffice/internal/config"
	"github.com/iliyamo/sales-backoffice/internal/database"
	"github.com/iliyamo/sales-backoffice/internal/handler"
	"github.com/iliyamo/sales-backoffice/internal/logging"
	"github.com/iliyamo/sales-backoffice/internal/metrics"
	"github.com/iliyamo/sales-backoffice/internal/middleware"
	"github.com/iliyamo/sales-backoffice/internal/queue"
	"github.com/iliyamo/sales-backoffice/internal/repository"
	"github.com/iliyamo/sales-backoffice/internal/router"
	"github.com/iliyamo/sales-backoffice/internal/service"
	"github.com/iliyamo/sales-backoffice/internal/utils"
)

func main() {
	envFile := flag.String("env-file", ".env", "path to a .env file (missing file is ignored)")
	runMigrations := flag.Bool("migrate", true, "apply pending schema migrations at startup")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		logrus.WithError(err).Fatalf("cannot load %s", *envFile)
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	if cfg.Token.Secret == config.DefaultJWTSecret && !strings.EqualFold(cfg.Env, "dev") {
		log.Warn("JWT_SECRET is not set; using the development secret outside dev")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("cannot connect to MySQL")
	}
	defer db.Close()

	if *runMigrations {
		v, err := database.Migrate(db)
		if err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.WithField("version", v).Info("schema up to date")
	}

	users := repository.NewUserRepo(db)
	created, err := users.EnsureAdmin(ctx, cfg.AdminCPF, cfg.AdminPassword, cfg.AdminName, cfg.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("cannot create bootstrap admin")
	}
	if created {
		log.WithField("cpf", cfg.AdminCPF).Info("bootstrap admin created")
	}

	// Audit pipeline: requests -> recorder -> (db | broker -> consumer -> db).
	auditRepo := repository.NewAuditRepo(db)
	var sink audit.Sink = auditRepo
	var publisher *service.AuditPublisher
	if strings.EqualFold(cfg.AuditTransport, "amqp") {
		publisher = service.NewAuditPublisher(cfg.RabbitURL)
		sink = publisher
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, auditRepo, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("audit consumer stopped")
			}
		}()
	}
	recorder := audit.NewRecorder(sink, log, audit.Options{
		Workers:   cfg.AuditWorkers,
		QueueSize: cfg.AuditQueueSize,
		OnDrop:    metrics.AuditDropped,
	})

	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if rlCfg.Enabled {
		rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			log.WithError(err).Warn("redis unavailable; rate limiting disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	tokens := utils.NewTokenService(cfg.Token)
	dashboard := service.NewDashboardService(repository.NewMetricsRepo(db, "mysql"), cfg.ProfitMargin)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(metrics.Middleware())

	router.Register(e, router.Deps{
		Tokens:    tokens,
		Audit:     recorder,
		DB:        db,
		Auth:      handler.NewAuthHandler(users, tokens, cfg.BcryptCost, log),
		Clients:   handler.NewClientHandler(repository.NewClientRepo(db), log),
		Products:  handler.NewProductHandler(repository.NewProductRepo(db), log),
		Sales:     handler.NewSaleHandler(repository.NewSaleRepo(db), log),
		Dashboard: handler.NewDashboardHandler(dashboard, log),

		RateLimit:      middleware.NewTokenBucket(rlCfg, rdb, log),
		LoginRateLimit: middleware.NewTokenBucket(rlCfg.ByAddress(), rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.WithError(err).WithField("dropped", recorder.Dropped()).Warn("audit queue not fully drained")
	}
	if publisher != nil {
		_ = publisher.Close()
	}
}

// requestLogger feeds echo's request logger into logrus.
func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
