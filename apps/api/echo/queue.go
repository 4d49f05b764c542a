package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusconnect/backend/core/queue"
	"github.com/campusconnect/backend/core/user"
)

type queueApi struct {
	svc      *queue.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerQueueAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *queue.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := queueApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	qg := g.Group("/queue", jwt)
	qg.GET("/services", api.queryServices)
	qg.GET("", api.queryQueue, adminMiddleware())

	tg := qg.Group("/tickets")
	tg.POST("", api.join)
	tg.GET("/mine", api.queryMine)
	tg.POST("/:id/cancel", api.cancel)
	tg.PUT("/:id/status", api.updateStatus, adminMiddleware())
}

// Handlers

func (api *queueApi) join(ctx echo.Context) error {
	var data queue.NewTicket
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTicket")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ticket, err := api.svc.Join(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "joining queue")
	}
	return ctx.JSON(http.StatusCreated, ticket)
}

func (api *queueApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tickets, err := api.svc.ListMine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying tickets")
	}
	if tickets == nil {
		tickets = []queue.Ticket{}
	}
	return ctx.JSON(http.StatusOK, tickets)
}

func (api *queueApi) cancel(ctx echo.Context) error {
	var data CancelTicketRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelTicketRequest")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ticket, err := api.svc.Cancel(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.Reason)
	if err != nil {
		return errors.Wrap(err, "cancelling ticket")
	}
	return ctx.JSON(http.StatusOK, ticket)
}

func (api *queueApi) queryServices(ctx echo.Context) error {
	services, err := api.svc.ListServices(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying services")
	}
	if services == nil {
		services = []string{}
	}
	return ctx.JSON(http.StatusOK, services)
}

func (api *queueApi) queryQueue(ctx echo.Context) error {
	tickets, err := api.svc.ListQueue(ctx.Request().Context(), ctx.QueryParam("service"), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "querying queue")
	}
	if tickets == nil {
		tickets = []queue.Ticket{}
	}
	return ctx.JSON(http.StatusOK, tickets)
}

func (api *queueApi) updateStatus(ctx echo.Context) error {
	var data queue.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ticket, err := api.svc.UpdateStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating ticket status")
	}
	return ctx.JSON(http.StatusOK, ticket)
}

type CancelTicketRequest struct {
	Reason string `json:"reason"`
}
