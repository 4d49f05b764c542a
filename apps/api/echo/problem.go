package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusconnect/backend/core/problem"
	"github.com/campusconnect/backend/core/user"
)

type problemApi struct {
	svc      *problem.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerProblemAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *problem.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := problemApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	pg := g.Group("/problems", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.PUT("/:id/status", api.updateStatus)
	pg.POST("/:id/comments", api.addComment)
}

// Handlers

func (api *problemApi) create(ctx echo.Context) error {
	var data problem.NewProblem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProblem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prob, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating problem")
	}
	return ctx.JSON(http.StatusCreated, prob)
}

func (api *problemApi) query(ctx echo.Context) error {
	filter := new(problem.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, problem.Page{Problems: []problem.Problem{}})
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	page, err := api.svc.Filter(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return errors.Wrap(err, "querying problems")
	}
	if page.Problems == nil {
		page.Problems = []problem.Problem{}
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *problemApi) updateStatus(ctx echo.Context) error {
	var data ProblemStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProblemStatusRequest")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prob, err := api.svc.UpdateStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating problem status")
	}
	return ctx.JSON(http.StatusOK, prob)
}

func (api *problemApi) addComment(ctx echo.Context) error {
	var data ProblemCommentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProblemCommentRequest")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prob, err := api.svc.AddComment(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.Text)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, prob)
}

type (
	ProblemStatusRequest struct {
		Status string `json:"status"`
	}

	ProblemCommentRequest struct {
		Text string `json:"text"`
	}
)
