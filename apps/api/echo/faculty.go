package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusconnect/backend/core/faculty"
	"github.com/campusconnect/backend/core/user"
)

type facultyApi struct {
	svc     *faculty.Service
	userSvc *user.Service
}

func registerFacultyAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *faculty.Service,
	userSvc *user.Service,
) {
	api := facultyApi{
		svc:     svc,
		userSvc: userSvc,
	}

	fg := g.Group("/faculty/status", jwt)
	fg.GET("", api.queryAll)
	fg.GET("/me", api.retrieveMine, facultyMiddleware())
	fg.PUT("/me", api.updateMine, facultyMiddleware())
}

// Handlers

func (api *facultyApi) queryAll(ctx echo.Context) error {
	entries, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faculty statuses")
	}
	if entries == nil {
		entries = []faculty.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *facultyApi) retrieveMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	st, err := api.svc.GetMine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "getting faculty status")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *facultyApi) updateMine(ctx echo.Context) error {
	var data faculty.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	st, err := api.svc.SetMine(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "setting faculty status")
	}
	return ctx.JSON(http.StatusOK, st)
}
