package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/message"
)

type messageApi struct {
	svc      *message.Service
	validate *validator.Validate
}

func registerMessageAPI(g *echo.Group, svc *message.Service, validate *validator.Validate) {
	api := messageApi{svc: svc, validate: validate}

	mg := g.Group("/messages")
	mg.GET("", api.query, authorize(opMessageList))
	mg.POST("", api.create, authorize(opMessageCreate))
	mg.GET("/summary", api.summary, authorize(opMessageSummary))
}

type NewMessageRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

func (api *messageApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DataResponse{Data: api.svc.List(ctx.Request().Context())})
}

func (api *messageApi) create(ctx echo.Context) error {
	var data NewMessageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessageRequest")
	}
	data.Message = core.CleanString(data.Message)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	author, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	msg, err := api.svc.Create(ctx.Request().Context(), author, data.Message)
	if err != nil {
		return errors.Wrap(err, "creating message")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "留言成功", Data: msg})
}

func (api *messageApi) summary(ctx echo.Context) error {
	summary, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing messages")
	}
	return ctx.JSON(http.StatusOK, SummaryResponse{Summary: summary})
}
