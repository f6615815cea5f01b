package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
	"github.com/specedu/caseboard/core/message"
	"github.com/specedu/caseboard/core/question"
	"github.com/specedu/caseboard/core/record"
	"github.com/specedu/caseboard/core/user"
	notifysvc "github.com/specedu/caseboard/services/notify"
)

type (
	// Services are the domain services the API exposes.
	Services struct {
		Users     *user.Service
		Records   *record.Service
		Messages  *message.Service
		IEP       *iep.Service
		Questions *question.Service
		Hub       *notifysvc.Hub
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	svcs Services,
) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup(validate, translator, svcs)
	return s
}

func (s *Server) setup(validate *validator.Validate, translator ut.Translator, svcs Services) {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", health)

	registerUserAPI(s.app.Group("/auth"), authMiddleware(s.conf, false), s.conf, svcs.Users, validate)

	api := s.app.Group("/api")
	authed := api.Group("", authMiddleware(s.conf, false))
	registerRecordAPI(authed, svcs.Records, validate)
	registerMessageAPI(authed, svcs.Messages, validate)
	registerIEPAPI(authed, svcs.IEP, s.conf.Server.MaxUploadSize)
	registerQuestionAPI(authed, svcs.Questions, validate)

	// browsers cannot set headers on websocket upgrades
	registerEventAPI(api.Group("", authMiddleware(s.conf, true)), svcs.Hub, s.conf.Server.CORSOrigins)
}

// Start listens until the server is shut down. Listen errors are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.logger.Info("API listening on " + s.conf.Server.Addr)
	if err := s.app.Start(s.conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// Close stops the server immediately.
func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{OK: true})
}
