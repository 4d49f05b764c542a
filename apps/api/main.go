package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/campusconnect/backend/apps/api/echo"
	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/claim"
	"github.com/campusconnect/backend/core/faculty"
	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/notification"
	"github.com/campusconnect/backend/core/problem"
	"github.com/campusconnect/backend/core/queue"
	"github.com/campusconnect/backend/core/user"
	emailsvc "github.com/campusconnect/backend/services/email"
	logsvc "github.com/campusconnect/backend/services/logger"
	uploadsvc "github.com/campusconnect/backend/services/uploads"
	"github.com/campusconnect/backend/storage/database"
	sqlxrepos "github.com/campusconnect/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	uploads, err := uploadsvc.NewLocalService(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up uploads dir: %v", err), err)
	}

	// repositories
	usrRepo := sqlxrepos.NewUserRepository(db)
	itemRepo := sqlxrepos.NewItemRepository(db)
	claimRepo := sqlxrepos.NewClaimRepository(db)
	notifRepo := sqlxrepos.NewNotificationRepository(db)
	queueRepo := sqlxrepos.NewQueueRepository(db)
	problemRepo := sqlxrepos.NewProblemRepository(db)
	facultyRepo := sqlxrepos.NewFacultyStatusRepository(db)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// services
	usrSvc := user.NewService(conf, usrRepo, mailSvc, validate)
	notifSvc := notification.NewService(notifRepo, logger)
	itemSvc := lostfound.NewService(itemRepo, claimRepo, usrRepo, mailSvc, notifSvc, logger)
	claimSvc := claim.NewService(claimRepo, itemRepo, usrRepo, mailSvc, notifSvc, logger)
	queueSvc := queue.NewService(queueRepo, notifSvc)
	problemSvc := problem.NewService(problemRepo)
	facultySvc := faculty.NewService(facultyRepo, usrRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:    conf.Server.Address(),
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,

			UserSvc:    usrSvc,
			ItemSvc:    itemSvc,
			ClaimSvc:   claimSvc,
			NotifSvc:   notifSvc,
			QueueSvc:   queueSvc,
			ProblemSvc: problemSvc,
			FacultySvc: facultySvc,
			Uploads:    uploads,
			SignalShutdown: func() {
				shutdown <- syscall.SIGTERM
			},
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
