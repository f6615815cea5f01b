package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "未登入")
	errInvalidToken         = echo.NewHTTPError(http.StatusForbidden, "憑證無效")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "帳號或密碼錯誤")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "憑證已過期，請重新登入")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "您的權限不足，無法執行此動作")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "找不到資料")
	errNoFile               = echo.NewHTTPError(http.StatusBadRequest, "未選擇檔案")
	errFileTooLarge         = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "檔案過大")

	// public messages of upstream failures, by service
	upstreamMessages = map[string]string{
		"ai":     "AI 總結失敗",
		"files":  "上傳失敗",
		"tables": "資料表服務暫時無法使用",
	}
	upstreamDefault = "外部服務暫時無法使用"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.UpstreamError:
			code = http.StatusBadGateway
			msg, ok := upstreamMessages[origErr.Service]
			if !ok {
				msg = upstreamDefault
			}
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextIdentity(ctx), requestInfo(ctx))
		default:
			if origErr == core.ErrNotFound {
				code = errHttpNotFound.Code
				message = errHttpNotFound.Message
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextIdentity(ctx), requestInfo(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		message = echo.Map{"message": message}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// contextIdentity returns the requesting identity, if any, for error reports.
func contextIdentity(ctx echo.Context) user.Identity {
	id, _ := getContextIdentity(ctx)
	return id
}

// requestInfo identifies the failed request in error reports.
func requestInfo(ctx echo.Context) core.RequestInfo {
	return core.RequestInfo{
		ID:     ctx.Response().Header().Get(echo.HeaderXRequestID),
		Method: ctx.Request().Method,
		Route:  ctx.Path(),
	}
}
