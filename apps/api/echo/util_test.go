package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	dummydb "github.com/campusconnect/backend/storage/database/dummy"
)

type testEnv struct {
	conf   *core.Config
	server Server

	usrRepo user.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:        true,
		AppName:         "CampusConnect",
		SecretKey:       []byte("secret"),
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromName: "CampusConnect",
		DefaultFromAddr: "noreply@localhost",
		UploadsDir:      t.TempDir(),

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
	logger := logsvc.NewTestLogger(t)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	uploads, err := uploadsvc.NewLocalService(conf)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	itemRepo := dummydb.NewItemRepository(db)
	claimRepo := dummydb.NewClaimRepository(db)
	notifRepo := dummydb.NewNotificationRepository(db)
	queueRepo := dummydb.NewQueueRepository(db)
	problemRepo := dummydb.NewProblemRepository(db)
	facultyRepo := dummydb.NewFacultyStatusRepository(db)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(conf, usrRepo, mailSvc, validate)
	notifSvc := notification.NewService(notifRepo, logger)
	itemSvc := lostfound.NewService(itemRepo, claimRepo, usrRepo, mailSvc, notifSvc, logger)
	claimSvc := claim.NewService(claimRepo, itemRepo, usrRepo, mailSvc, notifSvc, logger)
	queueSvc := queue.NewService(queueRepo, notifSvc)
	problemSvc := problem.NewService(problemRepo)
	facultySvc := faculty.NewService(facultyRepo, usrRepo)

	server := NewServer(&Options{
		Address:        "localhost:0",
		DisableReqLogs: true,

		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,

		UserSvc:        usrSvc,
		ItemSvc:        itemSvc,
		ClaimSvc:       claimSvc,
		NotifSvc:       notifSvc,
		QueueSvc:       queueSvc,
		ProblemSvc:     problemSvc,
		FacultySvc:     facultySvc,
		Uploads:        uploads,
		SignalShutdown: func() {},
	})

	return &testEnv{
		conf:    conf,
		server:  server,
		usrRepo: usrRepo,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (env *testEnv) createUser(t *testing.T, name, uname, email, pwd, department string, roles []string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:       name,
		Username:   uname,
		Email:      email,
		Department: department,
		Roles:      roles,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

// doUpload sends a multipart request carrying one file field.
func (env *testEnv) doUpload(t *testing.T, method, path, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err = io.Copy(fw, bytes.NewReader(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}
