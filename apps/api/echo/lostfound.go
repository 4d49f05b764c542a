package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/user"
	uploadsvc "github.com/campusconnect/backend/services/uploads"
)

type lostFoundApi struct {
	svc      *lostfound.Service
	userSvc  *user.Service
	uploads  uploadsvc.Service
	validate *validator.Validate
}

func registerLostFoundAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *lostfound.Service,
	userSvc *user.Service,
	uploads uploadsvc.Service,
	validate *validator.Validate,
) {
	api := lostFoundApi{
		svc:      svc,
		userSvc:  userSvc,
		uploads:  uploads,
		validate: validate,
	}

	lg := g.Group("/lostfound", jwt)
	lg.POST("", api.create)
	lg.GET("", api.query)
	lg.GET("/history", api.history)
	lg.GET("/:id", api.retrieve)
	lg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *lostFoundApi) create(ctx echo.Context) error {
	var data lostfound.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}

	// optional item photo, multipart uploads only
	if file, err := ctx.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded image")
		}
		defer src.Close()

		url, err := api.uploads.Save(file.Filename, src)
		if err != nil {
			return errors.Wrap(err, "saving uploaded image")
		}
		data.ImageURL = url
	}

	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	it, match, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating item")
	}

	return ctx.JSON(http.StatusCreated, CreateItemResponse{Item: it, Match: match})
}

func (api *lostFoundApi) query(ctx echo.Context) error {
	filter := new(lostfound.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lostfound.Item{})
	}

	items, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying items")
	}
	if items == nil {
		items = []lostfound.Item{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *lostFoundApi) history(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	items, err := api.svc.History(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying item history")
	}
	if items == nil {
		items = []lostfound.Item{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *lostFoundApi) retrieve(ctx echo.Context) error {
	it, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding item by ID")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *lostFoundApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type CreateItemResponse struct {
	Item  lostfound.Item   `json:"item"`
	Match *lostfound.Match `json:"match,omitempty"`
}
