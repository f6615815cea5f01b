package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
)

type userApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, auth echo.MiddlewareFunc, conf *core.Config, svc *user.Service, validate *validator.Validate) {
	api := userApi{
		conf:     conf,
		svc:      svc,
		validate: validate,
	}

	g.POST("/login", api.login)
	g.POST("/token-refresh", api.refreshToken, auth)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr.Identity()))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  LoginUser{Name: usr.Name, Role: usr.Role},
	})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginUser struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  LoginUser `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username)
	return validate.Struct(lr)
}
