package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/question"
)

type questionApi struct {
	svc      *question.Service
	validate *validator.Validate
}

func registerQuestionAPI(g *echo.Group, svc *question.Service, validate *validator.Validate) {
	api := questionApi{svc: svc, validate: validate}

	qg := g.Group("/questions")
	qg.GET("", api.query, authorize(opQuestionList))
	qg.POST("", api.create, authorize(opQuestionCreate))
	qg.PUT("/:id", api.reply, authorize(opQuestionReply))
}

type NewQuestionRequest struct {
	Question   string   `json:"question" validate:"required,notblank"`
	TargetRole RoleList `json:"target_role" validate:"omitempty,roles"`
}

func (api *questionApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DataResponse{Data: api.svc.List(ctx.Request().Context())})
}

func (api *questionApi) create(ctx echo.Context) error {
	var data NewQuestionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestionRequest")
	}
	data.Question = core.CleanString(data.Question)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	asker, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	q, err := api.svc.Create(ctx.Request().Context(), asker, data.Question, data.TargetRole)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "提問成功", Data: q})
}

func (api *questionApi) reply(ctx echo.Context) error {
	var data ReplyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplyRequest")
	}
	data.clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	replier, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	if _, err := api.svc.Reply(ctx.Request().Context(), replier, ctx.Param("id"), data.Reply); err != nil {
		return errors.Wrap(err, "replying to question")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "回覆成功"})
}
