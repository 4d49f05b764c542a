package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusconnect/backend/core/claim"
	"github.com/campusconnect/backend/core/user"
	uploadsvc "github.com/campusconnect/backend/services/uploads"
)

type claimApi struct {
	svc     *claim.Service
	userSvc *user.Service
	uploads uploadsvc.Service
}

func registerClaimAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *claim.Service,
	userSvc *user.Service,
	uploads uploadsvc.Service,
) {
	api := claimApi{
		svc:     svc,
		userSvc: userSvc,
		uploads: uploads,
	}

	cg := g.Group("/claims", jwt)
	cg.POST("", api.raise)
	cg.GET("/mine", api.queryMine)
	cg.GET("", api.queryAll, adminMiddleware())
	cg.POST("/:id/proof", api.uploadProof)
}

// Handlers

func (api *claimApi) raise(ctx echo.Context) error {
	var data RaiseClaimRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RaiseClaimRequest")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cl, err := api.svc.Raise(ctx.Request().Context(), ctxUsr, data.ItemID, data.SelectedAnswer)
	if err != nil {
		return errors.Wrap(err, "raising claim")
	}
	return ctx.JSON(http.StatusCreated, cl)
}

func (api *claimApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	claims, err := api.svc.ListMine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying claims")
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	return ctx.JSON(http.StatusOK, claims)
}

func (api *claimApi) queryAll(ctx echo.Context) error {
	claims, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying claims")
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	return ctx.JSON(http.StatusOK, claims)
}

func (api *claimApi) uploadProof(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var proofRef string
	if file, err := ctx.FormFile("photo"); err == nil {
		src, err := file.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded proof")
		}
		defer src.Close()

		proofRef, err = api.uploads.Save(file.Filename, src)
		if err != nil {
			return errors.Wrap(err, "saving uploaded proof")
		}
	}

	cl, resolved, err := api.svc.UploadProof(ctx.Request().Context(), ctxUsr, ctx.Param("id"), proofRef)
	if err != nil {
		return errors.Wrap(err, "uploading proof")
	}
	return ctx.JSON(http.StatusOK, UploadProofResponse{Claim: cl, Returned: resolved})
}

type (
	RaiseClaimRequest struct {
		ItemID         string `json:"item_id"`
		SelectedAnswer string `json:"selected_answer"`
	}

	UploadProofResponse struct {
		Claim    claim.Claim `json:"claim"`
		Returned bool        `json:"returned"`
	}
)
