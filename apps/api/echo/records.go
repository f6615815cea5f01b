package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/record"
)

type recordApi struct {
	svc      *record.Service
	validate *validator.Validate
}

func registerRecordAPI(g *echo.Group, svc *record.Service, validate *validator.Validate) {
	api := recordApi{svc: svc, validate: validate}

	rg := g.Group("/records")
	rg.GET("", api.query, authorize(opRecordList))
	rg.POST("", api.create, authorize(opRecordCreate))
	rg.PUT("/:id", api.reply, authorize(opRecordReply))
}

type NewRecordRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

func (api *recordApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DataResponse{Data: api.svc.List(ctx.Request().Context())})
}

func (api *recordApi) create(ctx echo.Context) error {
	var data NewRecordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecordRequest")
	}
	data.Content = core.CleanString(data.Content)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	author, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	rec, err := api.svc.Create(ctx.Request().Context(), author, data.Content)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "新增成功", Data: rec})
}

func (api *recordApi) reply(ctx echo.Context) error {
	var data ReplyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplyRequest")
	}
	data.clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if _, err := api.svc.Reply(ctx.Request().Context(), ctx.Param("id"), data.Reply); err != nil {
		return errors.Wrap(err, "replying to record")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "回覆成功"})
}
