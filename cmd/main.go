package main

import (
	"net/http"
	"os"
	"time"

	"gatehouse/api/handler"
	apiMiddleware "gatehouse/api/middleware"
	"gatehouse/api/routes"
	"gatehouse/config"
	"gatehouse/internal/repository"
	"gatehouse/internal/service"
	"gatehouse/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}

	userRepo := repository.NewUserRepository(db)
	secretRepo := repository.NewOneTimeSecretRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	jwtManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}

	engine := service.NewSecretEngine(secretRepo, service.RealClock{})
	engine.VerificationCodeTTL = cfg.VerificationCodeTTL
	engine.Login2FATTL = cfg.Login2FATTL
	engine.ResetTokenTTL = cfg.ResetTokenTTL

	sessions := service.NewSessionService(userRepo, refreshRepo, jwtManager, service.RealClock{})
	sessions.RefreshTokenTTL = cfg.RefreshTokenTTL

	var mailer service.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = service.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, outgoing mail disabled")
	}

	authService := service.NewAuthService(
		userRepo,
		engine,
		sessions,
		mailer,
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		service.AuthConfig{
			Require2FA: cfg.Require2FA,
			AppBaseURL: cfg.AppBaseURL,
		},
	)

	authHandler := handler.NewAuthHandler(authService, validator.New(), logger)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager}
	router := routes.NewRouter(app, authHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
