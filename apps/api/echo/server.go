package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/claim"
	"github.com/campusconnect/backend/core/faculty"
	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/notification"
	"github.com/campusconnect/backend/core/problem"
	"github.com/campusconnect/backend/core/queue"
	"github.com/campusconnect/backend/core/user"
	uploadsvc "github.com/campusconnect/backend/services/uploads"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc        *user.Service
		ItemSvc        *lostfound.Service
		ClaimSvc       *claim.Service
		NotifSvc       *notification.Service
		QueueSvc       *queue.Service
		ProblemSvc     *problem.Service
		FacultySvc     *faculty.Service
		Uploads        uploadsvc.Service
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.Static(uploadsvc.URLPrefix, conf.UploadsDir)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, conf, s.opts.UserSvc, s.opts.Validate)
	registerLostFoundAPI(v1, jwt, s.opts.ItemSvc, s.opts.UserSvc, s.opts.Uploads, s.opts.Validate)
	registerClaimAPI(v1, jwt, s.opts.ClaimSvc, s.opts.UserSvc, s.opts.Uploads)
	registerNotificationAPI(v1, jwt, s.opts.NotifSvc, s.opts.UserSvc)
	registerQueueAPI(v1, jwt, s.opts.QueueSvc, s.opts.UserSvc, s.opts.Validate)
	registerProblemAPI(v1, jwt, s.opts.ProblemSvc, s.opts.UserSvc, s.opts.Validate)
	registerFacultyAPI(v1, jwt, s.opts.FacultySvc, s.opts.UserSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to CampusConnect API!")
}
